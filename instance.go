package microvulkan

import (
	"unsafe"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// Initialize loads the Vulkan entry points through the given vkGetInstanceProcAddr, as returned
// by the windowing library. A nil procAddr uses the platform's default loader.
func Initialize(procAddr unsafe.Pointer) error {
	if procAddr == nil {
		if err := vk.SetDefaultGetInstanceProcAddr(); err != nil {
			return errors.Wrap(err, "load vulkan")
		}
	} else {
		vk.SetGetInstanceProcAddr(procAddr)
	}
	return errors.Wrap(vk.Init(), "init vulkan")
}

// Version is used to specify versions of components
type Version struct {
	Major int
	Minor int
	Patch int
}

// VKVersion returns a Vulkan compatible version representation
func (v *Version) VKVersion() uint32 {
	return vk.MakeVersion(v.Major, v.Minor, v.Patch)
}

// App describes the application to the Vulkan instance
type App struct {
	Name       string
	EngineName string
	Version    Version
	// APIVersion the expected minimum version of the Vulkan API, 1.0.0 when unset
	APIVersion Version

	EnabledLayers     []string
	EnabledExtensions []string
}

// SupportedLayers lists the instance layers, Vulkan must have been initialized
func SupportedLayers() ([]string, error) {
	var count uint32
	err := vk.Error(vk.EnumerateInstanceLayerProperties(&count, nil))
	if err != nil {
		return nil, err
	}
	layers := make([]vk.LayerProperties, count)
	err = vk.Error(vk.EnumerateInstanceLayerProperties(&count, layers))
	if err != nil {
		return nil, err
	}
	ret := make([]string, 0, count)
	for _, layer := range layers {
		layer.Deref()
		ret = append(ret, vk.ToString(layer.LayerName[:]))
	}
	return ret, nil
}

// SupportedExtensions lists the instance extensions, Vulkan must have been initialized
func SupportedExtensions() ([]string, error) {
	var count uint32
	err := vk.Error(vk.EnumerateInstanceExtensionProperties("", &count, nil))
	if err != nil {
		return nil, err
	}
	exts := make([]vk.ExtensionProperties, count)
	err = vk.Error(vk.EnumerateInstanceExtensionProperties("", &count, exts))
	if err != nil {
		return nil, err
	}
	ret := make([]string, 0, count)
	for _, ext := range exts {
		ext.Deref()
		ret = append(ret, vk.ToString(ext.ExtensionName[:]))
	}
	return ret, nil
}

// EnableValidation enables the Khronos validation layer and the debug report extension
func (a *App) EnableValidation() error {
	if err := a.EnableLayer("VK_LAYER_KHRONOS_validation"); err != nil {
		return err
	}
	a.EnableExtensions("VK_EXT_debug_report")
	return nil
}

// EnableLayer enables a layer if the instance supports it
func (a *App) EnableLayer(layer string) error {
	layers, err := SupportedLayers()
	if err != nil {
		return errors.Wrap(err, "supported layers")
	}
	for _, l := range layers {
		if l == layer {
			a.EnabledLayers = append(a.EnabledLayers, layer)
			return nil
		}
	}
	return errors.Errorf("layer %q not found", layer)
}

// EnableExtensions adds extensions, typically the ones the window system requires
func (a *App) EnableExtensions(extensions ...string) *App {
	a.EnabledExtensions = append(a.EnabledExtensions, extensions...)
	return a
}

func (a *App) applicationInfo() vk.ApplicationInfo {
	if a.APIVersion.Major < 1 {
		a.APIVersion.Major = 1
	}
	return vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		ApiVersion:         a.APIVersion.VKVersion(),
		ApplicationVersion: a.Version.VKVersion(),
		PApplicationName:   safeString(a.Name),
		PEngineName:        safeString(a.EngineName),
	}
}

// CreateInstance creates the Vulkan instance with the enabled layers and extensions
func (a *App) CreateInstance() (*Instance, error) {
	appInfo := a.applicationInfo()

	extensions := safeStrings(a.EnabledExtensions)
	layers := safeStrings(a.EnabledLayers)

	createInfo := vk.InstanceCreateInfo{
		SType:                   vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo:        &appInfo,
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: extensions,
		EnabledLayerCount:       uint32(len(layers)),
		PpEnabledLayerNames:     layers,
	}

	instance := &Instance{}

	err := vk.Error(vk.CreateInstance(&createInfo, nil, &instance.VKInstance))
	if err != nil {
		return nil, errors.Wrap(err, "create instance")
	}
	if err := vk.InitInstance(instance.VKInstance); err != nil {
		vk.DestroyInstance(instance.VKInstance, nil)
		return nil, errors.Wrap(err, "init instance")
	}
	return instance, nil
}

// Instance is an instance of the Vulkan subsystem
type Instance struct {
	VKInstance vk.Instance
	debug      vk.DebugReportCallback
}

// PhysicalDevices lists the adapters known to the instance
func (i *Instance) PhysicalDevices() ([]*PhysicalDevice, error) {
	var count uint32
	err := vk.Error(vk.EnumeratePhysicalDevices(i.VKInstance, &count, nil))
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, nil
	}

	devices := make([]vk.PhysicalDevice, count)
	err = vk.Error(vk.EnumeratePhysicalDevices(i.VKInstance, &count, devices))
	if err != nil {
		return nil, err
	}

	ret := make([]*PhysicalDevice, count)
	for n, device := range devices {
		pd := &PhysicalDevice{VKPhysicalDevice: device}
		vk.GetPhysicalDeviceProperties(device, &pd.VKPhysicalDeviceProperties)
		pd.VKPhysicalDeviceProperties.Deref()
		pd.VKPhysicalDeviceProperties.Limits.Deref()
		pd.DeviceName = vk.ToString(pd.VKPhysicalDeviceProperties.DeviceName[:])
		ret[n] = pd
	}
	return ret, nil
}

// ReportToLogger routes validation layer reports to the package logger, requires the debug report
// extension
func (i *Instance) ReportToLogger() error {
	ret := vk.CreateDebugReportCallback(i.VKInstance, &vk.DebugReportCallbackCreateInfo{
		SType:       vk.StructureTypeDebugReportCallbackCreateInfo,
		Flags:       vk.DebugReportFlags(vk.DebugReportErrorBit | vk.DebugReportWarningBit | vk.DebugReportPerformanceWarningBit),
		PfnCallback: debugReport,
	}, nil, &i.debug)
	return errors.Wrap(vk.Error(ret), "create debug report callback")
}

func debugReport(flags vk.DebugReportFlags, objectType vk.DebugReportObjectType,
	object uint64, location uint, messageCode int32, pLayerPrefix string,
	pMessage string, pUserData unsafe.Pointer) vk.Bool32 {

	log := Logger()
	switch {
	case flags&vk.DebugReportFlags(vk.DebugReportErrorBit) != 0:
		log.Error(pMessage, "layer", pLayerPrefix, "code", messageCode)
	case flags&vk.DebugReportFlags(vk.DebugReportWarningBit|vk.DebugReportPerformanceWarningBit) != 0:
		log.Warn(pMessage, "layer", pLayerPrefix, "code", messageCode)
	default:
		log.Debug(pMessage, "layer", pLayerPrefix, "code", messageCode)
	}
	return vk.Bool32(vk.False)
}

func (i *Instance) Destroy() {
	if i.debug != nil {
		vk.DestroyDebugReportCallback(i.VKInstance, i.debug, nil)
	}
	vk.DestroyInstance(i.VKInstance, nil)
}

// DestroySurface destroys a presentation surface created for this instance
func (i *Instance) DestroySurface(surface vk.Surface) {
	vk.DestroySurface(i.VKInstance, surface, nil)
}
