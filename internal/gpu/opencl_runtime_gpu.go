//go:build gpu

package gpu

/*
#cgo LDFLAGS: -lOpenCL
#define CL_TARGET_OPENCL_VERSION 120
#define CL_USE_DEPRECATED_OPENCL_1_2_APIS
#include <CL/cl.h>

static const char* photoprep_cl_error_string(cl_int status) {
	switch (status) {
	case CL_SUCCESS: return "CL_SUCCESS";
	case CL_DEVICE_NOT_FOUND: return "CL_DEVICE_NOT_FOUND";
	case CL_DEVICE_NOT_AVAILABLE: return "CL_DEVICE_NOT_AVAILABLE";
	case CL_COMPILER_NOT_AVAILABLE: return "CL_COMPILER_NOT_AVAILABLE";
	case CL_MEM_OBJECT_ALLOCATION_FAILURE: return "CL_MEM_OBJECT_ALLOCATION_FAILURE";
	case CL_OUT_OF_RESOURCES: return "CL_OUT_OF_RESOURCES";
	case CL_OUT_OF_HOST_MEMORY: return "CL_OUT_OF_HOST_MEMORY";
	case CL_BUILD_PROGRAM_FAILURE: return "CL_BUILD_PROGRAM_FAILURE";
	case CL_MAP_FAILURE: return "CL_MAP_FAILURE";
	case CL_INVALID_VALUE: return "CL_INVALID_VALUE";
	case CL_INVALID_DEVICE: return "CL_INVALID_DEVICE";
	case CL_INVALID_CONTEXT: return "CL_INVALID_CONTEXT";
	case CL_INVALID_COMMAND_QUEUE: return "CL_INVALID_COMMAND_QUEUE";
	case CL_INVALID_MEM_OBJECT: return "CL_INVALID_MEM_OBJECT";
	case CL_INVALID_BUFFER_SIZE: return "CL_INVALID_BUFFER_SIZE";
	case CL_INVALID_OPERATION: return "CL_INVALID_OPERATION";
	case CL_INVALID_PROGRAM: return "CL_INVALID_PROGRAM";
	case CL_INVALID_KERNEL_NAME: return "CL_INVALID_KERNEL_NAME";
	case CL_INVALID_KERNEL: return "CL_INVALID_KERNEL";
	case CL_INVALID_ARG_INDEX: return "CL_INVALID_ARG_INDEX";
	case CL_INVALID_ARG_VALUE: return "CL_INVALID_ARG_VALUE";
	case CL_INVALID_ARG_SIZE: return "CL_INVALID_ARG_SIZE";
	case CL_INVALID_KERNEL_ARGS: return "CL_INVALID_KERNEL_ARGS";
	case CL_INVALID_WORK_DIMENSION: return "CL_INVALID_WORK_DIMENSION";
	case CL_INVALID_WORK_GROUP_SIZE: return "CL_INVALID_WORK_GROUP_SIZE";
	case CL_INVALID_GLOBAL_OFFSET: return "CL_INVALID_GLOBAL_OFFSET";
	default: return "CL_UNKNOWN_ERROR";
	}
}

static cl_command_queue photoprep_create_queue(cl_context ctx, cl_device_id device, cl_int *status) {
#if CL_TARGET_OPENCL_VERSION >= 200
	const cl_queue_properties props[] = {0};
	return clCreateCommandQueueWithProperties(ctx, device, props, status);
#else
	return clCreateCommandQueue(ctx, device, 0, status);
#endif
}
*/
import "C"

import (
	"errors"
	"fmt"
	"unsafe"
)

// Runtime owns the OpenCL context and command queue.
type Runtime struct {
	platformID C.cl_platform_id
	deviceID   C.cl_device_id
	context    C.cl_context
	queue      C.cl_command_queue
	Platform   PlatformInfo
	Device     DeviceInfo
}

// ErrNoDevices indicates that no usable OpenCL devices were found.
var ErrNoDevices = errors.New("no OpenCL devices found")

// Init selects the best available device (GPU preferred, then CPU, then
// anything else) and creates a context and command queue on it.
func Init() (*Runtime, error) {
	records, err := enumerateRecords()
	if err != nil {
		return nil, err
	}

	var (
		bestPlatform *platformRecord
		bestDevice   *deviceRecord
		bestRank     = -1
	)
	for pi := range records {
		for di := range records[pi].devices {
			d := &records[pi].devices[di]
			if r := deviceRank(d.info.Type); r > bestRank {
				bestPlatform, bestDevice, bestRank = &records[pi], d, r
			}
		}
	}
	if bestDevice == nil {
		return nil, ErrNoDevices
	}

	var status C.cl_int
	context := C.clCreateContext(nil, 1, &bestDevice.id, nil, nil, &status)
	if status != C.CL_SUCCESS {
		return nil, statusError("clCreateContext", status)
	}

	queue := C.photoprep_create_queue(context, bestDevice.id, &status)
	if status != C.CL_SUCCESS {
		C.clReleaseContext(context)
		return nil, statusError("clCreateCommandQueue", status)
	}

	return &Runtime{
		platformID: bestPlatform.id,
		deviceID:   bestDevice.id,
		context:    context,
		queue:      queue,
		Platform:   bestPlatform.info,
		Device:     bestDevice.info,
	}, nil
}

func deviceRank(t DeviceType) int {
	switch t {
	case DeviceTypeGPU:
		return 3
	case DeviceTypeCPU:
		return 2
	case DeviceTypeAccelerator:
		return 1
	default:
		return 0
	}
}

// Close releases OpenCL resources. Safe to call more than once.
func (r *Runtime) Close() {
	if r == nil {
		return
	}
	if r.queue != nil {
		C.clReleaseCommandQueue(r.queue)
		r.queue = nil
	}
	if r.context != nil {
		C.clReleaseContext(r.context)
		r.context = nil
	}
}

// ContextPtr exposes the raw context for sibling cgo packages.
func (r *Runtime) ContextPtr() unsafe.Pointer { return unsafe.Pointer(r.context) }

// QueuePtr exposes the raw command queue for sibling cgo packages.
func (r *Runtime) QueuePtr() unsafe.Pointer { return unsafe.Pointer(r.queue) }

// DevicePtr exposes the raw device id for sibling cgo packages.
func (r *Runtime) DevicePtr() unsafe.Pointer { return unsafe.Pointer(r.deviceID) }

// EnumeratePlatforms returns discovered platforms with their devices.
func EnumeratePlatforms() ([]PlatformInfo, error) {
	records, err := enumerateRecords()
	if err != nil {
		return nil, err
	}
	out := make([]PlatformInfo, len(records))
	for i, rec := range records {
		out[i] = rec.info
	}
	return out, nil
}

type platformRecord struct {
	id      C.cl_platform_id
	info    PlatformInfo
	devices []deviceRecord
}

type deviceRecord struct {
	id   C.cl_device_id
	info DeviceInfo
}

func enumerateRecords() ([]platformRecord, error) {
	var count C.cl_uint
	if status := C.clGetPlatformIDs(0, nil, &count); status != C.CL_SUCCESS {
		return nil, statusError("clGetPlatformIDs(count)", status)
	}
	if count == 0 {
		return nil, nil
	}

	ids := make([]C.cl_platform_id, int(count))
	if status := C.clGetPlatformIDs(count, &ids[0], nil); status != C.CL_SUCCESS {
		return nil, statusError("clGetPlatformIDs(list)", status)
	}

	records := make([]platformRecord, 0, int(count))
	for _, pid := range ids {
		rec := platformRecord{id: pid}
		var err error
		if rec.info.Name, err = platformString(pid, C.CL_PLATFORM_NAME); err != nil {
			return nil, err
		}
		if rec.info.Vendor, err = platformString(pid, C.CL_PLATFORM_VENDOR); err != nil {
			return nil, err
		}
		if rec.info.Version, err = platformString(pid, C.CL_PLATFORM_VERSION); err != nil {
			return nil, err
		}

		devices, err := enumerateDevices(pid)
		if err != nil && !errors.Is(err, ErrNoDevices) {
			return nil, err
		}
		rec.devices = devices
		rec.info.Devices = make([]DeviceInfo, len(devices))
		for i, d := range devices {
			rec.info.Devices[i] = d.info
		}
		records = append(records, rec)
	}
	return records, nil
}

func enumerateDevices(platform C.cl_platform_id) ([]deviceRecord, error) {
	var count C.cl_uint
	status := C.clGetDeviceIDs(platform, C.CL_DEVICE_TYPE_ALL, 0, nil, &count)
	if status == C.CL_DEVICE_NOT_FOUND || count == 0 {
		return nil, ErrNoDevices
	}
	if status != C.CL_SUCCESS {
		return nil, statusError("clGetDeviceIDs(count)", status)
	}

	ids := make([]C.cl_device_id, int(count))
	if status := C.clGetDeviceIDs(platform, C.CL_DEVICE_TYPE_ALL, count, &ids[0], nil); status != C.CL_SUCCESS {
		return nil, statusError("clGetDeviceIDs(list)", status)
	}

	devices := make([]deviceRecord, 0, int(count))
	for _, id := range ids {
		info, err := describeDevice(id)
		if err != nil {
			return nil, err
		}
		devices = append(devices, deviceRecord{id: id, info: info})
	}
	return devices, nil
}

func describeDevice(id C.cl_device_id) (DeviceInfo, error) {
	var info DeviceInfo
	var err error
	if info.Name, err = deviceString(id, C.CL_DEVICE_NAME); err != nil {
		return DeviceInfo{}, err
	}
	if info.Vendor, err = deviceString(id, C.CL_DEVICE_VENDOR); err != nil {
		return DeviceInfo{}, err
	}
	if info.Version, err = deviceString(id, C.CL_DEVICE_VERSION); err != nil {
		return DeviceInfo{}, err
	}

	var rawType C.cl_device_type
	if status := C.clGetDeviceInfo(id, C.CL_DEVICE_TYPE, C.size_t(unsafe.Sizeof(rawType)), unsafe.Pointer(&rawType), nil); status != C.CL_SUCCESS {
		return DeviceInfo{}, statusError("clGetDeviceInfo(type)", status)
	}
	switch {
	case rawType&C.CL_DEVICE_TYPE_GPU != 0:
		info.Type = DeviceTypeGPU
	case rawType&C.CL_DEVICE_TYPE_CPU != 0:
		info.Type = DeviceTypeCPU
	case rawType&C.CL_DEVICE_TYPE_ACCELERATOR != 0:
		info.Type = DeviceTypeAccelerator
	default:
		info.Type = DeviceTypeUnknown
	}

	var units C.cl_uint
	if status := C.clGetDeviceInfo(id, C.CL_DEVICE_MAX_COMPUTE_UNITS, C.size_t(unsafe.Sizeof(units)), unsafe.Pointer(&units), nil); status != C.CL_SUCCESS {
		return DeviceInfo{}, statusError("clGetDeviceInfo(computeUnits)", status)
	}
	info.MaxComputeUnits = uint32(units)

	return info, nil
}

func platformString(id C.cl_platform_id, param C.cl_platform_info) (string, error) {
	var size C.size_t
	if status := C.clGetPlatformInfo(id, param, 0, nil, &size); status != C.CL_SUCCESS {
		return "", statusError("clGetPlatformInfo(size)", status)
	}
	if size == 0 {
		return "", nil
	}
	buf := make([]byte, int(size))
	if status := C.clGetPlatformInfo(id, param, size, unsafe.Pointer(&buf[0]), nil); status != C.CL_SUCCESS {
		return "", statusError("clGetPlatformInfo(value)", status)
	}
	return trimNull(buf), nil
}

func deviceString(id C.cl_device_id, param C.cl_device_info) (string, error) {
	var size C.size_t
	if status := C.clGetDeviceInfo(id, param, 0, nil, &size); status != C.CL_SUCCESS {
		return "", statusError("clGetDeviceInfo(size)", status)
	}
	if size == 0 {
		return "", nil
	}
	buf := make([]byte, int(size))
	if status := C.clGetDeviceInfo(id, param, size, unsafe.Pointer(&buf[0]), nil); status != C.CL_SUCCESS {
		return "", statusError("clGetDeviceInfo(value)", status)
	}
	return trimNull(buf), nil
}

func trimNull(buf []byte) string {
	if len(buf) > 0 && buf[len(buf)-1] == 0 {
		buf = buf[:len(buf)-1]
	}
	return string(buf)
}

func statusError(prefix string, status C.cl_int) error {
	return fmt.Errorf("%s: %s (%d)", prefix, C.GoString(C.photoprep_cl_error_string(status)), int(status))
}
