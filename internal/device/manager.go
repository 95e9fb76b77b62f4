package device

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/arnavsurve/applectl/internal/identifier"
	"github.com/arnavsurve/applectl/internal/iosdeploy"
	"github.com/arnavsurve/applectl/internal/output"
	"github.com/arnavsurve/applectl/internal/process"
	"github.com/arnavsurve/applectl/internal/simctl"
)

var (
	ErrNotFound             = errors.New("device not found")
	ErrDeviceTypeNotFound   = errors.New("device type not found")
	ErrRuntimeNotFound      = errors.New("runtime not found")
	ErrNoAvailableSimulator = errors.New("no available simulator")
)

// Options configures the tools a Manager drives.
type Options struct {
	Xcrun     string
	IOSDeploy string
	// OpenSimulator brings Simulator.app to the front after a boot.
	OpenSimulator bool
}

type Manager struct {
	exec process.Executor
	opts Options
	log  *zap.Logger
}

func NewManager(exec process.Executor, opts Options, log *zap.Logger) *Manager {
	if opts.Xcrun == "" {
		opts.Xcrun = "xcrun"
	}
	if opts.IOSDeploy == "" {
		opts.IOSDeploy = "ios-deploy"
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{exec: exec, opts: opts, log: log}
}

func (m *Manager) simctl(ctx context.Context, args ...string) (output.Execution, error) {
	return m.exec.Execute(ctx, m.opts.Xcrun, append([]string{"simctl"}, args...)...)
}

// DeviceList returns the raw simctl listing.
func (m *Manager) DeviceList(ctx context.Context) (simctl.DeviceList, error) {
	out, err := simctl.List(m.log).ClassifyResult(m.simctl(ctx, "list", "devices", "-j"))
	if err != nil {
		return simctl.DeviceList{}, err
	}
	return out.Result()
}

// List returns the simulators f accepts in model order.
func (m *Manager) List(ctx context.Context, f Filter) ([]Device, error) {
	list, err := m.DeviceList(ctx)
	if err != nil {
		return nil, err
	}
	var devices []Device
	for _, d := range list.Filter(f.match) {
		devices = append(devices, FromSimulator(d))
	}
	Sort(devices)
	return devices, nil
}

// Resolve finds a simulator by UDID or exact name, then by case-insensitive
// name, then by name substring.
func (m *Manager) Resolve(ctx context.Context, nameOrUDID string) (simctl.Device, error) {
	list, err := m.DeviceList(ctx)
	if err != nil {
		return simctl.Device{}, err
	}
	if d, ok := list.Find(nameOrUDID); ok {
		return d, nil
	}

	available := list.Filter(func(d simctl.Device) bool { return d.IsAvailable })
	needle := strings.ToLower(nameOrUDID)
	for _, d := range available {
		if strings.ToLower(d.Name.String()) == needle {
			return d, nil
		}
	}
	for _, d := range available {
		if strings.Contains(strings.ToLower(d.Name.String()), needle) {
			return d, nil
		}
	}
	return simctl.Device{}, fmt.Errorf("%w: %s", ErrNotFound, nameOrUDID)
}

// NewestIPad returns the available simulator with the most recent iPad model.
func (m *Manager) NewestIPad(ctx context.Context) (simctl.Device, error) {
	return m.newest(ctx, "iPad", simctl.DeviceList.NewestIPad)
}

// NewestIPhone returns the available simulator with the most recent iPhone
// model.
func (m *Manager) NewestIPhone(ctx context.Context) (simctl.Device, error) {
	return m.newest(ctx, "iPhone", simctl.DeviceList.NewestIPhone)
}

func (m *Manager) newest(ctx context.Context, family string, pick func(simctl.DeviceList) (simctl.Device, bool)) (simctl.Device, error) {
	list, err := m.DeviceList(ctx)
	if err != nil {
		return simctl.Device{}, err
	}
	d, ok := pick(list)
	if !ok {
		return simctl.Device{}, fmt.Errorf("%w: no %s simulator", ErrNoAvailableSimulator, family)
	}
	m.log.Debug("selected newest simulator",
		zap.String("family", family),
		zap.Stringer("name", d.Name),
		zap.String("udid", d.ID()),
	)
	return d, nil
}

func (m *Manager) Boot(ctx context.Context, d simctl.Device) error {
	if d.State == simctl.StateBooted {
		return nil
	}

	out, err := simctl.Boot(m.log).ClassifyResult(m.simctl(ctx, "boot", d.ID()))
	if err == nil {
		err = out.Check()
	}
	if err != nil {
		return fmt.Errorf("boot %s: %w", d.Name, err)
	}

	if m.opts.OpenSimulator {
		if _, err := m.exec.Execute(ctx, "open", "-a", "Simulator"); err != nil {
			m.log.Debug("could not open Simulator.app", zap.Error(err))
		}
	}
	return nil
}

func (m *Manager) Shutdown(ctx context.Context, d simctl.Device) error {
	if d.State == simctl.StateShutdown {
		return nil
	}
	if err := m.shutdown(ctx, d.ID()); err != nil {
		return fmt.Errorf("shutdown %s: %w", d.Name, err)
	}
	return nil
}

func (m *Manager) ShutdownAll(ctx context.Context) error {
	return m.shutdown(ctx, "all")
}

func (m *Manager) shutdown(ctx context.Context, target string) error {
	out, err := simctl.Shutdown(m.log).ClassifyResult(m.simctl(ctx, "shutdown", target))
	if err != nil {
		return err
	}
	return out.Check()
}

func (m *Manager) Install(ctx context.Context, d simctl.Device, appPath string) error {
	out, err := simctl.Install(m.log).ClassifyResult(m.simctl(ctx, "install", d.ID(), appPath))
	if err == nil {
		err = out.Check()
	}
	if err != nil {
		return fmt.Errorf("install on %s: %w", d.Name, err)
	}
	return nil
}

// Launch starts an app and returns its bundle identifier and PID.
func (m *Manager) Launch(ctx context.Context, d simctl.Device, bundleID string, args []string) (simctl.Launched, error) {
	cmdArgs := append([]string{"launch", d.ID(), bundleID}, args...)
	out, err := simctl.Launch(m.log).ClassifyResult(m.simctl(ctx, cmdArgs...))
	if err != nil {
		return simctl.Launched{}, fmt.Errorf("launch %s: %w", bundleID, err)
	}
	launched, err := out.Result()
	if err != nil {
		return simctl.Launched{}, fmt.Errorf("launch %s: %w", bundleID, err)
	}
	return launched, nil
}

func (m *Manager) Delete(ctx context.Context, d simctl.Device) error {
	out, err := simctl.Delete(m.log).ClassifyResult(m.simctl(ctx, "delete", d.ID()))
	if err == nil {
		err = out.Check()
	}
	if err != nil {
		return fmt.Errorf("delete %s: %w", d.Name, err)
	}
	return nil
}

// Create makes a new simulator and returns its UDID.
func (m *Manager) Create(ctx context.Context, name, deviceTypeID, runtimeID string) (uuid.UUID, error) {
	out, err := simctl.Create(m.log).ClassifyResult(m.simctl(ctx, "create", name, deviceTypeID, runtimeID))
	if err != nil {
		return uuid.Nil, err
	}
	created, err := out.Result()
	if err != nil {
		return uuid.Nil, err
	}
	return created.UDID, nil
}

func (m *Manager) DeviceTypes(ctx context.Context) ([]simctl.DeviceType, error) {
	out, err := simctl.DeviceTypes(m.log).ClassifyResult(m.simctl(ctx, "list", "devicetypes", "-j"))
	if err != nil {
		return nil, err
	}
	return out.Result()
}

func (m *Manager) Runtimes(ctx context.Context) ([]simctl.RuntimeInfo, error) {
	out, err := simctl.Runtimes(m.log).ClassifyResult(m.simctl(ctx, "list", "runtimes", "-j"))
	if err != nil {
		return nil, err
	}
	return out.Result()
}

// ResolveDeviceType turns a model name such as "iPhone 15 Pro" into a
// CoreSimulator device type identifier. Identifiers pass through.
func (m *Manager) ResolveDeviceType(ctx context.Context, input string) (string, error) {
	if strings.HasPrefix(input, "com.apple.") {
		return input, nil
	}
	types, err := m.DeviceTypes(ctx)
	if err != nil {
		return "", err
	}

	want := identifier.Parse(input)
	if want.Recognized() {
		for _, t := range types {
			if t.Name.Equal(want) {
				return t.Identifier, nil
			}
		}
	}

	needle := strings.ToLower(input)
	for _, t := range types {
		name := strings.ToLower(t.Name.String())
		if name == needle || strings.Contains(name, needle) {
			return t.Identifier, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrDeviceTypeNotFound, input)
}

// ResolveRuntime turns a runtime name such as "iOS 17.4" into a
// CoreSimulator runtime identifier. Among several matches, such as plain
// "iOS", the newest available version wins.
func (m *Manager) ResolveRuntime(ctx context.Context, input string) (string, error) {
	if strings.HasPrefix(input, "com.apple.") {
		return input, nil
	}
	runtimes, err := m.Runtimes(ctx)
	if err != nil {
		return "", err
	}

	needle := strings.ToLower(input)
	matches := slices.DeleteFunc(runtimes, func(r simctl.RuntimeInfo) bool {
		name := strings.ToLower(r.Name)
		return !r.IsAvailable || (name != needle && !strings.Contains(name, needle))
	})
	if len(matches) == 0 {
		return "", fmt.Errorf("%w: %s", ErrRuntimeNotFound, input)
	}
	best := slices.MaxFunc(matches, func(a, b simctl.RuntimeInfo) int {
		return a.Runtime.CompareVersion(b.Runtime)
	})
	return best.Runtime.ID, nil
}

// Detect lists physical devices reachable through ios-deploy.
func (m *Manager) Detect(ctx context.Context, timeoutSeconds int, wifi bool) ([]Device, error) {
	out, err := iosdeploy.Detect(m.log).ClassifyResult(
		m.exec.Execute(ctx, m.opts.IOSDeploy, iosdeploy.DetectArgs(timeoutSeconds, wifi)...),
	)
	if err != nil {
		return nil, err
	}
	found, err := out.Result()
	if err != nil {
		return nil, err
	}
	devices := make([]Device, len(found))
	for i, d := range found {
		devices[i] = FromPhysical(d)
	}
	Sort(devices)
	return devices, nil
}

// Upload installs an app bundle on a physical device. An empty udid lets
// ios-deploy pick the first device it finds.
func (m *Manager) Upload(ctx context.Context, udid, bundle string) (iosdeploy.Uploaded, error) {
	args := []string{"--bundle", bundle}
	if udid != "" {
		args = append([]string{"--id", udid}, args...)
	}
	out, err := iosdeploy.Upload(m.log).ClassifyResult(m.exec.Execute(ctx, m.opts.IOSDeploy, args...))
	if err != nil {
		return iosdeploy.Uploaded{}, err
	}
	return out.Result()
}
