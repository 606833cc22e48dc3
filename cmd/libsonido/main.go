// Command libsonido builds the analysis engine as a C shared library:
//
//	go build -buildmode=c-shared -o libsonido.so ./cmd/libsonido
//
// Every pointer returned by this library is allocated with malloc and must be
// handed back to the matching sonido_delete_* function.
package main

/*
#include <stdlib.h>

// Chromagram is bin-major: the value for (bin, frame) is
// chromagram[bin * chroma_n_frames + frame]. It is NULL when either count is 0.
typedef struct {
	char* key;
	float duration;
	float* chromagram;
	int chroma_n_frames;
	int chroma_n_bins;
} SonidoAnalysisResult;
*/
import "C"

import (
	"errors"
	"os"
	"unsafe"

	"github.com/RyanBlaney/sonido-chroma/boundary"
	"github.com/RyanBlaney/sonido-chroma/config"
	"github.com/RyanBlaney/sonido-chroma/logging"
)

const (
	envConfig   = "SONIDO_CONFIG"
	envLogLevel = "SONIDO_LOG_LEVEL"
)

var errAllocation = errors.New("C allocation failed")

// calloc is swapped out in tests to simulate allocation failure
var calloc = func(count, size uintptr) unsafe.Pointer {
	return C.calloc(C.size_t(count), C.size_t(size))
}

func logger(function string) logging.Logger {
	return logging.WithFields(logging.Fields{
		"component": "libsonido",
		"function":  function,
	})
}

// sonido_init creates the engine. Configuration is read from the JSON file
// named by SONIDO_CONFIG when set. Returns 0 on success.
//
//export sonido_init
func sonido_init() C.int {
	l := logging.NewDefaultLoggerNoColor()
	l.SetLevel(logging.WarnLevel)
	if name := os.Getenv(envLogLevel); name != "" {
		if level, err := logging.ParseLevel(name); err == nil {
			l.SetLevel(level)
		}
	}
	logging.SetGlobalLogger(l)

	cfg := config.DefaultConfig()
	if path := os.Getenv(envConfig); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			logger("sonido_init").Error(err, "Failed to load configuration", logging.Fields{"path": path})
			return -1
		}
		cfg = loaded
	}

	if err := boundary.Init(cfg); err != nil {
		logger("sonido_init").Error(err, "Failed to initialize engine")
		return -1
	}
	return 0
}

// sonido_shutdown releases the engine. Returns 0 on success.
//
//export sonido_shutdown
func sonido_shutdown() C.int {
	if err := boundary.Shutdown(); err != nil {
		logger("sonido_shutdown").Error(err, "Shutdown failed")
		return -1
	}
	return 0
}

// sonido_analyze_buffer analyzes length mono 44.1 kHz samples. Returns NULL on
// failure; otherwise the result must be freed with sonido_delete_analysis_result.
//
//export sonido_analyze_buffer
func sonido_analyze_buffer(buffer *C.float, length C.int) *C.SonidoAnalysisResult {
	rec, err := boundary.Analyze(samples(buffer, length))
	if err != nil {
		logger("sonido_analyze_buffer").Error(err, "Analysis failed", logging.Fields{"length": int(length)})
		return nil
	}
	defer rec.Release()

	res := (*C.SonidoAnalysisResult)(calloc(1, unsafe.Sizeof(C.SonidoAnalysisResult{})))
	if res == nil {
		logger("sonido_analyze_buffer").Error(errAllocation, "Could not allocate result")
		return nil
	}

	if n := len(rec.Chromagram); n > 0 {
		ptr := calloc(uintptr(n), unsafe.Sizeof(C.float(0)))
		if ptr == nil {
			C.free(unsafe.Pointer(res))
			logger("sonido_analyze_buffer").Error(errAllocation, "Could not allocate chromagram", logging.Fields{"values": n})
			return nil
		}
		copy(unsafe.Slice((*float32)(ptr), n), rec.Chromagram)
		res.chromagram = (*C.float)(ptr)
		res.chroma_n_frames = C.int(rec.FrameCount)
		res.chroma_n_bins = C.int(rec.BinCount)
	}

	res.key = C.CString(rec.Key)
	res.duration = C.float(rec.Duration)

	return res
}

// sonido_delete_analysis_result frees a result and every buffer it owns.
// NULL is accepted. Freeing the same result twice is undefined behaviour.
//
//export sonido_delete_analysis_result
func sonido_delete_analysis_result(res *C.SonidoAnalysisResult) {
	if res == nil {
		return
	}
	if res.key != nil {
		C.free(unsafe.Pointer(res.key))
	}
	if res.chromagram != nil {
		C.free(unsafe.Pointer(res.chromagram))
	}
	C.free(unsafe.Pointer(res))
}

// sonido_compute_key_from_float_buffer returns the key of a buffer, "" when it
// has no tonal content, or NULL on failure. Free with sonido_delete_c_string.
//
//export sonido_compute_key_from_float_buffer
func sonido_compute_key_from_float_buffer(buffer *C.float, length C.int) *C.char {
	key, err := boundary.ComputeKey(samples(buffer, length))
	if err != nil {
		logger("sonido_compute_key_from_float_buffer").Error(err, "Key estimation failed")
		return nil
	}
	return C.CString(key)
}

// sonido_compute_key_from_file reads a headerless little-endian float32 file
// and returns its key, or NULL on failure. Free with sonido_delete_c_string.
//
//export sonido_compute_key_from_file
func sonido_compute_key_from_file(path *C.char) *C.char {
	if path == nil {
		return nil
	}

	name := C.GoString(path)
	key, err := boundary.ComputeKeyFromFile(name)
	if err != nil {
		logger("sonido_compute_key_from_file").Error(err, "Key estimation failed", logging.Fields{"path": name})
		return nil
	}
	return C.CString(key)
}

// sonido_delete_c_string frees a string returned by this library. NULL is accepted.
//
//export sonido_delete_c_string
func sonido_delete_c_string(str *C.char) {
	if str != nil {
		C.free(unsafe.Pointer(str))
	}
}

// samples views a caller-owned C buffer as a Go slice without copying
func samples(buffer *C.float, length C.int) []float32 {
	if buffer == nil || length <= 0 {
		return nil
	}
	return unsafe.Slice((*float32)(unsafe.Pointer(buffer)), int(length))
}

// analyzeSamples copies samples into C memory and runs sonido_analyze_buffer on them
func analyzeSamples(samples []float32) *C.SonidoAnalysisResult {
	if len(samples) == 0 {
		return sonido_analyze_buffer(nil, 0)
	}
	buf := (*C.float)(C.malloc(C.size_t(len(samples)) * C.size_t(unsafe.Sizeof(C.float(0)))))
	defer C.free(unsafe.Pointer(buf))
	copy(unsafe.Slice((*float32)(unsafe.Pointer(buf)), len(samples)), samples)
	return sonido_analyze_buffer(buf, C.int(len(samples)))
}

// keyOfSamples is analyzeSamples for sonido_compute_key_from_float_buffer.
// ok is false when the library returned NULL.
func keyOfSamples(samples []float32) (key string, ok bool) {
	var str *C.char
	if len(samples) == 0 {
		str = sonido_compute_key_from_float_buffer(nil, 0)
	} else {
		buf := (*C.float)(C.malloc(C.size_t(len(samples)) * C.size_t(unsafe.Sizeof(C.float(0)))))
		defer C.free(unsafe.Pointer(buf))
		copy(unsafe.Slice((*float32)(unsafe.Pointer(buf)), len(samples)), samples)
		str = sonido_compute_key_from_float_buffer(buf, C.int(len(samples)))
	}
	return takeString(str)
}

// keyOfFile runs sonido_compute_key_from_file on a Go path
func keyOfFile(path string) (key string, ok bool) {
	cpath := C.CString(path)
	defer C.free(unsafe.Pointer(cpath))
	return takeString(sonido_compute_key_from_file(cpath))
}

// takeString copies a library string into Go and frees it
func takeString(str *C.char) (string, bool) {
	if str == nil {
		return "", false
	}
	defer sonido_delete_c_string(str)
	return C.GoString(str), true
}

// resultView is a Go copy of a SonidoAnalysisResult
type resultView struct {
	Key        string
	Duration   float32
	Chromagram []float32
	FrameCount int
	BinCount   int
}

// viewResult copies the fields of a result without freeing it
func viewResult(res *C.SonidoAnalysisResult) resultView {
	v := resultView{
		Duration:   float32(res.duration),
		FrameCount: int(res.chroma_n_frames),
		BinCount:   int(res.chroma_n_bins),
	}
	if res.key != nil {
		v.Key = C.GoString(res.key)
	}
	if res.chromagram != nil {
		n := v.FrameCount * v.BinCount
		v.Chromagram = append([]float32(nil), unsafe.Slice((*float32)(unsafe.Pointer(res.chromagram)), n)...)
	}
	return v
}

func main() {}
