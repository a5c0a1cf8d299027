//go:build gpu

package engine

/*
#cgo LDFLAGS: -lOpenCL
#define CL_TARGET_OPENCL_VERSION 120
#define CL_USE_DEPRECATED_OPENCL_1_2_APIS
#include <CL/cl.h>
#include <stdlib.h>

static const char* photoprep_engine_error_string(cl_int status) {
	switch (status) {
	case CL_SUCCESS: return "CL_SUCCESS";
	case CL_DEVICE_NOT_FOUND: return "CL_DEVICE_NOT_FOUND";
	case CL_DEVICE_NOT_AVAILABLE: return "CL_DEVICE_NOT_AVAILABLE";
	case CL_MEM_OBJECT_ALLOCATION_FAILURE: return "CL_MEM_OBJECT_ALLOCATION_FAILURE";
	case CL_OUT_OF_RESOURCES: return "CL_OUT_OF_RESOURCES";
	case CL_OUT_OF_HOST_MEMORY: return "CL_OUT_OF_HOST_MEMORY";
	case CL_BUILD_PROGRAM_FAILURE: return "CL_BUILD_PROGRAM_FAILURE";
	case CL_INVALID_VALUE: return "CL_INVALID_VALUE";
	case CL_INVALID_CONTEXT: return "CL_INVALID_CONTEXT";
	case CL_INVALID_MEM_OBJECT: return "CL_INVALID_MEM_OBJECT";
	case CL_INVALID_BUFFER_SIZE: return "CL_INVALID_BUFFER_SIZE";
	case CL_INVALID_OPERATION: return "CL_INVALID_OPERATION";
	case CL_INVALID_KERNEL_NAME: return "CL_INVALID_KERNEL_NAME";
	case CL_INVALID_KERNEL: return "CL_INVALID_KERNEL";
	case CL_INVALID_ARG_INDEX: return "CL_INVALID_ARG_INDEX";
	case CL_INVALID_ARG_VALUE: return "CL_INVALID_ARG_VALUE";
	case CL_INVALID_ARG_SIZE: return "CL_INVALID_ARG_SIZE";
	case CL_INVALID_KERNEL_ARGS: return "CL_INVALID_KERNEL_ARGS";
	case CL_INVALID_WORK_DIMENSION: return "CL_INVALID_WORK_DIMENSION";
	case CL_INVALID_WORK_GROUP_SIZE: return "CL_INVALID_WORK_GROUP_SIZE";
	default: return "CL_UNKNOWN_ERROR";
	}
}
*/
import "C"

import (
	"fmt"
	"log/slog"
	"unsafe"

	"github.com/cwbudde/photoprep/internal/gpu"
	"github.com/cwbudde/photoprep/internal/pix"
)

// The three pipeline kernels. Each runs over a 2-D grid padded to whole
// work groups; out-of-range work items return without touching memory.
// Luminance uses the same exact decimal fixed point as the CPU engine, so
// both backends produce bit-identical grayscale output.
const openclKernelSource = `
__kernel void grayscale(
    __global const uchar *src,
    __global uchar *dst,
    const int width,
    const int height) {

    const int x = get_global_id(0);
    const int y = get_global_id(1);
    if (x >= width || y >= height) {
        return;
    }

    const int i = (y * width + x) * 3;
    const uint r = src[i];
    const uint g = src[i + 1];
    const uint b = src[i + 2];
    dst[y * width + x] = (uchar)((299u * r + 587u * g + 114u * b) / 1000u);
}

__kernel void crop_window(
    __global const uchar *src,
    __global uchar *dst,
    const int srcWidth,
    const int offsetX,
    const int offsetY,
    const int dstWidth,
    const int dstHeight) {

    const int x = get_global_id(0);
    const int y = get_global_id(1);
    if (x >= dstWidth || y >= dstHeight) {
        return;
    }

    dst[y * dstWidth + x] = src[(y + offsetY) * srcWidth + (x + offsetX)];
}

__kernel void tone_lift(
    __global uchar *img,
    const int width,
    const int height) {

    const int x = get_global_id(0);
    const int y = get_global_id(1);
    if (x >= width || y >= height) {
        return;
    }

    /* Exact decimal gains (1.10 and 1.05) in fixed point, truncating like
       the host path. float32 gains would land one unit low near integer
       products. */
    const int i = y * width + x;
    const uint p = img[i];
    const uint lifted = p <= 128u ? (p * 110u) / 100u : (p * 105u) / 100u;
    img[i] = (uchar)min(lifted, 255u);
}
`

type openCLEngine struct {
	runtime *gpu.Runtime

	context C.cl_context
	queue   C.cl_command_queue
	device  C.cl_device_id
	program C.cl_program

	grayKernel C.cl_kernel
	cropKernel C.cl_kernel
	toneKernel C.cl_kernel
}

type clBuffer struct {
	mem  C.cl_mem
	desc Desc
}

func (b *clBuffer) Desc() Desc { return b.desc }

func (b *clBuffer) Release() {
	if b.mem != nil {
		C.clReleaseMemObject(b.mem)
		b.mem = nil
	}
}

func newOpenCLEngine() (Engine, func(), error) {
	rt, err := gpu.Init()
	if err != nil {
		return nil, noopCleanup, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	e := &openCLEngine{
		runtime: rt,
		context: C.cl_context(rt.ContextPtr()),
		queue:   C.cl_command_queue(rt.QueuePtr()),
		device:  C.cl_device_id(rt.DevicePtr()),
	}
	if err := e.buildProgram(); err != nil {
		e.Close()
		return nil, noopCleanup, err
	}

	slog.Info("OpenCL backend initialised",
		"device", rt.Device.Name,
		"vendor", rt.Device.Vendor,
		"compute_units", rt.Device.MaxComputeUnits,
	)

	return e, e.Close, nil
}

func (e *openCLEngine) Backend() Backend { return BackendOpenCL }

func (e *openCLEngine) buildProgram() error {
	source := C.CString(openclKernelSource)
	defer C.free(unsafe.Pointer(source))

	var status C.cl_int
	e.program = C.clCreateProgramWithSource(e.context, 1, &source, nil, &status)
	if status != C.CL_SUCCESS {
		return e.clError("clCreateProgramWithSource", status)
	}

	if status = C.clBuildProgram(e.program, 1, &e.device, nil, nil, nil); status != C.CL_SUCCESS {
		e.dumpBuildLog()
		return e.clError("clBuildProgram", status)
	}

	var err error
	if e.grayKernel, err = e.createKernel("grayscale"); err != nil {
		return err
	}
	if e.cropKernel, err = e.createKernel("crop_window"); err != nil {
		return err
	}
	if e.toneKernel, err = e.createKernel("tone_lift"); err != nil {
		return err
	}
	return nil
}

func (e *openCLEngine) createKernel(name string) (C.cl_kernel, error) {
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))

	var status C.cl_int
	kernel := C.clCreateKernel(e.program, cname, &status)
	if status != C.CL_SUCCESS {
		return nil, e.clError("clCreateKernel("+name+")", status)
	}
	return kernel, nil
}

func (e *openCLEngine) Upload(src *pix.Buffer) (Buffer, error) {
	if !src.Valid() {
		panic(fmt.Sprintf("engine: upload of malformed buffer (%dx%dx%d, %d bytes)",
			src.Width, src.Height, src.Channels, len(src.Pix)))
	}

	desc := Desc{Width: src.Width, Height: src.Height, Channels: src.Channels}
	buf, err := e.alloc(desc)
	if err != nil {
		return nil, err
	}

	status := C.clEnqueueWriteBuffer(e.queue, buf.mem, C.CL_TRUE, 0,
		C.size_t(desc.Len()), unsafe.Pointer(&src.Pix[0]), 0, nil, nil)
	if status != C.CL_SUCCESS {
		buf.Release()
		return nil, e.clError("clEnqueueWriteBuffer", status)
	}
	return buf, nil
}

func (e *openCLEngine) Download(src Buffer) (*pix.Buffer, error) {
	b := e.own(src)
	out := pix.New(b.desc.Width, b.desc.Height, b.desc.Channels)

	status := C.clEnqueueReadBuffer(e.queue, b.mem, C.CL_TRUE, 0,
		C.size_t(b.desc.Len()), unsafe.Pointer(&out.Pix[0]), 0, nil, nil)
	if status != C.CL_SUCCESS {
		return nil, e.clError("clEnqueueReadBuffer", status)
	}
	return out, nil
}

func (e *openCLEngine) Grayscale(src Buffer) (Buffer, error) {
	b := e.own(src)
	if b.desc.Channels != 3 {
		panic(fmt.Sprintf("engine: grayscale input must have 3 channels, got %d", b.desc.Channels))
	}

	dst, err := e.alloc(Desc{Width: b.desc.Width, Height: b.desc.Height, Channels: 1})
	if err != nil {
		return nil, err
	}

	args := []kernelArg{
		memArg(&b.mem),
		memArg(&dst.mem),
		intArg(b.desc.Width),
		intArg(b.desc.Height),
	}
	if err := e.dispatch(e.grayKernel, "grayscale", b.desc.Width, b.desc.Height, args); err != nil {
		dst.Release()
		return nil, err
	}
	return dst, nil
}

func (e *openCLEngine) Crop(src Buffer, r pix.Rect) (Buffer, error) {
	b := e.own(src)
	if b.desc.Channels != 1 {
		panic(fmt.Sprintf("engine: crop input must have 1 channel, got %d", b.desc.Channels))
	}
	if !r.Within(b.desc.Width, b.desc.Height) {
		panic(fmt.Sprintf("engine: crop window %+v outside %dx%d source", r, b.desc.Width, b.desc.Height))
	}

	dst, err := e.alloc(Desc{Width: r.W, Height: r.H, Channels: 1})
	if err != nil {
		return nil, err
	}

	args := []kernelArg{
		memArg(&b.mem),
		memArg(&dst.mem),
		intArg(b.desc.Width),
		intArg(r.X),
		intArg(r.Y),
		intArg(r.W),
		intArg(r.H),
	}
	if err := e.dispatch(e.cropKernel, "crop_window", r.W, r.H, args); err != nil {
		dst.Release()
		return nil, err
	}
	return dst, nil
}

func (e *openCLEngine) Tone(buf Buffer) error {
	b := e.own(buf)
	if b.desc.Channels != 1 {
		panic(fmt.Sprintf("engine: tone input must have 1 channel, got %d", b.desc.Channels))
	}

	args := []kernelArg{
		memArg(&b.mem),
		intArg(b.desc.Width),
		intArg(b.desc.Height),
	}
	return e.dispatch(e.toneKernel, "tone_lift", b.desc.Width, b.desc.Height, args)
}

func (e *openCLEngine) Close() {
	if e.grayKernel != nil {
		C.clReleaseKernel(e.grayKernel)
		e.grayKernel = nil
	}
	if e.cropKernel != nil {
		C.clReleaseKernel(e.cropKernel)
		e.cropKernel = nil
	}
	if e.toneKernel != nil {
		C.clReleaseKernel(e.toneKernel)
		e.toneKernel = nil
	}
	if e.program != nil {
		C.clReleaseProgram(e.program)
		e.program = nil
	}
	if e.runtime != nil {
		e.runtime.Close()
		e.runtime = nil
	}
}

func (e *openCLEngine) alloc(d Desc) (*clBuffer, error) {
	var status C.cl_int
	mem := C.clCreateBuffer(e.context, C.CL_MEM_READ_WRITE, C.size_t(d.Len()), nil, &status)
	if status != C.CL_SUCCESS {
		return nil, e.clError("clCreateBuffer", status)
	}
	return &clBuffer{mem: mem, desc: d}, nil
}

func (e *openCLEngine) own(buf Buffer) *clBuffer {
	b, ok := buf.(*clBuffer)
	if !ok {
		panic(fmt.Sprintf("engine: foreign buffer %T passed to opencl engine", buf))
	}
	if b.mem == nil {
		panic("engine: use of released buffer")
	}
	return b
}

type kernelArg struct {
	size C.size_t
	ptr  unsafe.Pointer
}

func memArg(mem *C.cl_mem) kernelArg {
	return kernelArg{size: C.size_t(unsafe.Sizeof(*mem)), ptr: unsafe.Pointer(mem)}
}

func intArg(v int) kernelArg {
	cv := C.cl_int(v)
	return kernelArg{size: C.size_t(unsafe.Sizeof(cv)), ptr: unsafe.Pointer(&cv)}
}

// dispatch sets the kernel arguments, enqueues a 2-D grid padded up to
// whole work groups, and waits for completion. The clFinish is the stage
// barrier: the kernel's output is fully materialized before dispatch
// returns.
func (e *openCLEngine) dispatch(kernel C.cl_kernel, name string, w, h int, args []kernelArg) error {
	for i, a := range args {
		if status := C.clSetKernelArg(kernel, C.cl_uint(i), a.size, a.ptr); status != C.CL_SUCCESS {
			return e.clError(fmt.Sprintf("clSetKernelArg(%s, %d)", name, i), status)
		}
	}

	local := [2]C.size_t{tileW, tileH}
	global := [2]C.size_t{
		C.size_t(roundUp(w, tileW)),
		C.size_t(roundUp(h, tileH)),
	}

	status := C.clEnqueueNDRangeKernel(e.queue, kernel, 2, nil, &global[0], &local[0], 0, nil, nil)
	if status != C.CL_SUCCESS {
		return e.clError("clEnqueueNDRangeKernel("+name+")", status)
	}
	if status := C.clFinish(e.queue); status != C.CL_SUCCESS {
		return e.clError("clFinish("+name+")", status)
	}
	return nil
}

func roundUp(v, multiple int) int {
	return (v + multiple - 1) / multiple * multiple
}

func (e *openCLEngine) clError(prefix string, status C.cl_int) error {
	return fmt.Errorf("%s: %s (%d)", prefix, C.GoString(C.photoprep_engine_error_string(status)), int(status))
}

func (e *openCLEngine) dumpBuildLog() {
	if e.program == nil || e.device == nil {
		return
	}

	var logSize C.size_t
	if status := C.clGetProgramBuildInfo(e.program, e.device, C.CL_PROGRAM_BUILD_LOG, 0, nil, &logSize); status != C.CL_SUCCESS {
		slog.Error("OpenCL: failed to fetch build log size", "err", int(status))
		return
	}
	if logSize == 0 {
		return
	}

	buf := make([]byte, int(logSize))
	if status := C.clGetProgramBuildInfo(e.program, e.device, C.CL_PROGRAM_BUILD_LOG, logSize, unsafe.Pointer(&buf[0]), nil); status != C.CL_SUCCESS {
		slog.Error("OpenCL: failed to fetch build log", "err", int(status))
		return
	}

	slog.Error("OpenCL build log", "log", string(buf))
}
