package identifier

import (
	"encoding/json"
	"math/rand"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arnavsurve/applectl/internal/grammar"
)

// Names as printed by simctl and ios-deploy.
var recognizedNames = []string{
	"iPhone SE (2nd generation)",
	"iPhone SE (3rd generation)",
	"iPhone 8",
	"iPhone 8 Plus",
	"iPhone 11",
	"iPhone 11 Pro",
	"iPhone 11 Pro Max",
	"iPhone 12 mini",
	"iPhone 13 mini",
	"iPhone 14 Plus",
	"iPhone 15 Pro Max",
	"iPhone 16",
	"iPhone 16 Pro",
	"iPad (9th generation)",
	"iPad (10th generation)",
	"iPad mini (5th generation)",
	"iPad mini (6th generation)",
	"iPad Air (3rd generation)",
	"iPad Air (5th generation)",
	"iPad Air 11-inch (M2)",
	"iPad Air 13-inch (M2)",
	"iPad Pro (11-inch) (4th generation)",
	"iPad Pro (12.9-inch) (6th generation)",
	"iPad Pro 11-inch (M4)",
	"iPad Pro 13-inch (M4)",
}

func TestRoundTrip(t *testing.T) {
	for _, name := range recognizedNames {
		t.Run(name, func(t *testing.T) {
			id, err := ParseStrict(name)
			require.NoError(t, err)
			require.True(t, id.Recognized())
			assert.Equal(t, name, id.String())
			assert.Equal(t, name, id.Raw())
		})
	}
}

func TestParseScenarios(t *testing.T) {
	tests := []struct {
		input string
		want  any
	}{
		{
			input: "iPad Pro (11-inch) (4th generation)",
			want: IPadPro{
				Size:                 ScreenSize{Tenths: 110, Brackets: true},
				Generation:           NumericGeneration{N: 4},
				SizeBeforeGeneration: true,
			},
		},
		{
			input: "iPad Pro 13-inch (M4)",
			want: IPadPro{
				Size:                 ScreenSize{Tenths: 130},
				Generation:           ChipGeneration{N: 4},
				SizeBeforeGeneration: true,
			},
		},
		{
			input: "iPhone SE (3rd generation)",
			want:  IPhoneSE{Generation: NumericGeneration{N: 3}},
		},
		{
			input: "iPad Air 11-inch (M2)",
			want:  IPadAir{Size: &ScreenSize{Tenths: 110}, Generation: ChipGeneration{N: 2}},
		},
		{
			input: "iPad Air (5th generation)",
			want:  IPadAir{Generation: NumericGeneration{N: 5}},
		},
		{
			input: "iPad mini (6th generation)",
			want:  IPadMini{Generation: NumericGeneration{N: 6}},
		},
		{
			input: "iPad (10th generation)",
			want:  IPadPlain{Generation: NumericGeneration{N: 10}},
		},
		{
			input: "iPhone 15 Pro Max",
			want:  IPhoneNumbered{Number: 15, Pro: true, Max: true},
		},
		{
			input: "iPhone 13 mini",
			want:  IPhoneNumbered{Number: 13, Mini: true},
		},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			id := Parse(tt.input)
			var got any
			if v, ok := id.IPhone(); ok {
				got = v
			} else if v, ok := id.IPad(); ok {
				got = v
			} else {
				t.Fatalf("%q was not recognized", tt.input)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Parse(%q) mismatch (-want +got):\n%s", tt.input, diff)
			}
			assert.Equal(t, tt.input, id.String())
		})
	}
}

func TestGenerationAfterSizeRendersInOrder(t *testing.T) {
	v := IPadPro{Size: Inches(110), Generation: LongGeneration(4)}
	assert.Equal(t, "iPad Pro (4th generation) (11-inch)", v.String())

	id, err := ParseStrict(v.String())
	require.NoError(t, err)
	got, ok := id.IPad()
	require.True(t, ok)
	assert.False(t, got.(IPadPro).SizeBeforeGeneration)
}

func TestUnrecognized(t *testing.T) {
	for _, name := range []string{
		"Samsung Galaxy Tab",
		"Apple Watch Series 9 (45mm)",
		"Apple TV 4K (3rd generation)",
		"",
	} {
		t.Run(name, func(t *testing.T) {
			id, err := ParseStrict(name)
			require.NoError(t, err)
			assert.False(t, id.Recognized())
			assert.Equal(t, FamilyUnrecognized, id.Family())
			assert.Equal(t, name, id.String())
		})
	}
}

func TestCommittedFamilyFailure(t *testing.T) {
	for _, name := range []string{
		"iPhone",
		"iPhone Xs",
		"iPhone 16e",
		"iPhone 15 Ultra",
		"iPad",
		"iPad Pro (9.7-inch)",
		"iPad mini (A17 Pro)",
		"iPad (A16)",
		"iPad Air 11-inch",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseStrict(name)
			require.Error(t, err)
			assert.True(t, grammar.IsCommitted(err), "%v", err)

			id := Parse(name)
			assert.False(t, id.Recognized())
			assert.Equal(t, name, id.String())
		})
	}
}

func TestNotCanonical(t *testing.T) {
	for _, name := range []string{
		"iPad Pro ( 11-inch ) ( 4th generation )",
		"iPad Air 11-inch ( M2 )",
		"iPhone  15",
		"iPhone SE (3th generation)",
		" iPhone 15",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseStrict(name)
			var nc *NotCanonicalError
			require.ErrorAs(t, err, &nc)
			assert.Equal(t, name, nc.Input)

			id := Parse(name)
			assert.False(t, id.Recognized())
			assert.Equal(t, name, id.String())
		})
	}
}

func TestParseIsTotal(t *testing.T) {
	inputs := []string{
		"",
		" ",
		"\x00",
		"(((",
		")",
		"iPad Pro (",
		"iPad Pro (11-inch",
		"iPad Pro (0-inch) (M0)",
		"iPad Air 99999-inch (M1)",
		"iPhone 0",
		"iPhone 256",
		"iPhone SE (999th generation)",
		"iPad (1.5th generation)",
		"iPhone 15 Pro Max Max",
		"iPad mini (M",
		"🍎 iPhone",
		strings.Repeat("iPad ", 1000),
		strings.Repeat("(", 4096),
	}
	r := rand.New(rand.NewSource(1))
	alphabet := []rune("iPadhone SEminAirPro()-\"0123456789 .MGthndrsgeneration")
	for range 200 {
		b := make([]rune, r.Intn(40))
		for i := range b {
			b[i] = alphabet[r.Intn(len(alphabet))]
		}
		inputs = append(inputs, string(b))
	}

	for _, in := range inputs {
		assert.NotPanics(t, func() {
			id := Parse(in)
			if id.Recognized() {
				assert.Equal(t, in, id.String())
			} else {
				assert.Equal(t, in, id.Raw())
			}
		}, "%q", in)
	}
}

func TestCompare(t *testing.T) {
	sorted := []string{
		"iPhone SE (2nd generation)",
		"iPhone SE (3rd generation)",
		"iPhone 8",
		"iPhone 8 Plus",
		"iPhone 12 mini",
		"iPhone 12",
		"iPhone 15",
		"iPhone 15 Pro",
		"iPhone 15 Pro Max",
		"iPhone 15 Plus",
		"iPhone 16",
		"iPad (9th generation)",
		"iPad (10th generation)",
		"iPad mini (6th generation)",
		"iPad Air (5th generation)",
		"iPad Air 11-inch (M2)",
		"iPad Air 13-inch (M2)",
		"iPad Pro (11-inch) (4th generation)",
		"iPad Pro (12.9-inch) (6th generation)",
		"iPad Pro 11-inch (M4)",
		"iPad Pro 13-inch (M4)",
		"Apple Watch Series 9 (45mm)",
		"Samsung Galaxy Tab",
	}
	ids := make([]Identifier, len(sorted))
	for i, s := range sorted {
		ids[i] = Parse(s)
	}

	for i := range ids {
		assert.Zero(t, Compare(ids[i], ids[i]), sorted[i])
		for j := i + 1; j < len(ids); j++ {
			assert.Negative(t, Compare(ids[i], ids[j]), "%s < %s", sorted[i], sorted[j])
			assert.Positive(t, Compare(ids[j], ids[i]), "%s > %s", sorted[j], sorted[i])
		}
	}

	shuffled := append([]Identifier(nil), ids...)
	rand.New(rand.NewSource(7)).Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	Sort(shuffled)
	got := make([]string, len(shuffled))
	for i, id := range shuffled {
		got[i] = id.String()
	}
	assert.Equal(t, sorted, got)
}

func TestChipAboveNumeric(t *testing.T) {
	chip := Parse("iPad Air 11-inch (M1)")
	numeric := Parse("iPad Air (99th generation)")
	require.True(t, chip.Recognized())
	require.True(t, numeric.Recognized())
	assert.Positive(t, Compare(chip, numeric))

	assert.Positive(t, CompareGenerations(Chip(1), LongGeneration(200)))
	assert.Negative(t, CompareGenerations(ShortGeneration(255), Chip(1)))
}

func TestEqualIgnoresPresentation(t *testing.T) {
	assert.True(t, LongGeneration(5).Equal(ShortGeneration(5)))
	assert.True(t, EqualGenerations(LongGeneration(5), ShortGeneration(5)))
	assert.False(t, EqualGenerations(LongGeneration(5), Chip(5)))

	a := ScreenSize{Tenths: 110, Short: true}
	b := ScreenSize{Tenths: 110, Brackets: true}
	assert.True(t, a.Equal(b))
	assert.Zero(t, a.Compare(b))

	before := FromIPad(IPadPro{Size: Inches(110), Generation: LongGeneration(4), SizeBeforeGeneration: true})
	after := FromIPad(IPadPro{Size: ScreenSize{Tenths: 110, Short: true}, Generation: ShortGeneration(4)})
	assert.True(t, before.Equal(after))
	assert.NotEqual(t, before.String(), after.String())
}

func TestFragments(t *testing.T) {
	g, err := ParseNumericGeneration("(6th generation)")
	require.NoError(t, err)
	assert.Equal(t, NumericGeneration{N: 6}, g)

	g, err = ParseNumericGeneration("5G")
	require.NoError(t, err)
	assert.Equal(t, ShortGeneration(5), g)
	assert.Equal(t, "5G", g.String())

	c, err := ParseChipGeneration("( M2 )")
	require.NoError(t, err)
	assert.Equal(t, Chip(2), c)
	assert.Equal(t, "(M2)", c.String())

	gen, err := ParseGeneration("(M4)")
	require.NoError(t, err)
	assert.Equal(t, ChipGeneration{N: 4}, gen)

	_, err = ParseGeneration("(4)")
	assert.Error(t, err)

	sizes := map[string]ScreenSize{
		"(11-inch)":   {Tenths: 110, Brackets: true},
		"12.9-inch":   {Tenths: 129},
		`(13")`:       {Tenths: 130, Short: true, Brackets: true},
		`10.5"`:       {Tenths: 105, Short: true},
		" (11-inch) ": {Tenths: 110, Brackets: true},
	}
	for in, want := range sizes {
		got, err := ParseScreenSize(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
		assert.Equal(t, strings.TrimSpace(in), got.String())
	}
	assert.InDelta(t, 12.9, ScreenSize{Tenths: 129}.Float(), 1e-9)

	for _, bad := range []string{"11", "11.25-inch", "0-inch", "(11-inch", "eleven-inch"} {
		_, err := ParseScreenSize(bad)
		assert.Error(t, err, bad)
	}
}

func TestJSON(t *testing.T) {
	type record struct {
		Name  Identifier   `json:"name"`
		Names []Identifier `json:"names"`
	}
	in := `{"name":"iPad Pro 11-inch (M4)","names":["iPhone 15","Vision Pro"]}`

	var r record
	require.NoError(t, json.Unmarshal([]byte(in), &r))
	assert.True(t, r.Name.IsIPad())
	assert.True(t, r.Names[0].IsIPhone())
	assert.False(t, r.Names[1].Recognized())

	out, err := json.Marshal(r)
	require.NoError(t, err)
	assert.JSONEq(t, in, string(out))

	assert.Error(t, json.Unmarshal([]byte(`{"name":42}`), &r))
}

func TestCollections(t *testing.T) {
	var ids []Identifier
	for _, s := range []string{
		"iPad Pro 11-inch (M4)",
		"iPhone 15",
		"iPad (10th generation)",
		"Apple TV",
		"iPhone 16 Pro",
		"iPad mini (6th generation)",
	} {
		ids = append(ids, Parse(s))
	}

	assert.Len(t, IPhones(ids), 2)
	assert.Len(t, IPads(ids), 3)

	phone, ok := NewestIPhone(ids)
	require.True(t, ok)
	assert.Equal(t, "iPhone 16 Pro", phone.String())

	pad, ok := NewestIPad(ids)
	require.True(t, ok)
	assert.Equal(t, "iPad Pro 11-inch (M4)", pad.String())

	notPro := func(v IPadVariant) bool {
		_, pro := v.(IPadPro)
		return !pro
	}
	pad, ok = NewestIPad(ids, notPro)
	require.True(t, ok)
	assert.Equal(t, "iPad mini (6th generation)", pad.String())

	_, ok = NewestIPhone(ids[:1])
	assert.False(t, ok)
	assert.Len(t, IPads(ids), 3, "filters must not modify the input")
}

func TestParseRuntime(t *testing.T) {
	tests := []struct {
		id   string
		want Runtime
	}{
		{"com.apple.CoreSimulator.SimRuntime.iOS-17-4", Runtime{Platform: PlatformIOS, Version: "17.4"}},
		{"com.apple.CoreSimulator.SimRuntime.watchOS-10-2", Runtime{Platform: PlatformWatchOS, Version: "10.2"}},
		{"com.apple.CoreSimulator.SimRuntime.xrOS-1-0", Runtime{Platform: PlatformVisionOS, Version: "1.0"}},
		{"com.apple.CoreSimulator.SimRuntime.tvOS-18-0-1", Runtime{Platform: PlatformTVOS, Version: "18.0.1"}},
		{"iOS-18-2", Runtime{Platform: PlatformIOS, Version: "18.2"}},
		{"com.apple.CoreSimulator.SimRuntime.fooOS-1", Runtime{Platform: PlatformUnknown, Version: "1"}},
		{"garbage!", Runtime{Platform: PlatformUnknown}},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			got := ParseRuntime(tt.id)
			tt.want.ID = tt.id
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRuntimeCompareVersion(t *testing.T) {
	assert.Negative(t, ParseRuntime("iOS-9-3").CompareVersion(ParseRuntime("iOS-17-4")))
	assert.Positive(t, ParseRuntime("iOS-17-4-1").CompareVersion(ParseRuntime("iOS-17-4")))
	assert.Zero(t, ParseRuntime("iOS-17-0").CompareVersion(ParseRuntime("iOS-17")))
}
