// Package openxla converts modules with buffer semantics (the "lmhlo" and "memref" dialects, where operations
// write into pre-allocated buffers) to value semantics (tensors, `scf` control flow, and `iree_input.dispatch`
// of compiled kernels).
//
// Buffers disappear in the conversion: each is tied (see DeBufferization) to the tensor value currently holding
// its contents. Operations writing to a buffer produce a new tensor and re-tie the buffer to it, loops carry
// the tensors of the buffers they write, and output buffers of a function (arguments marked with the
// `lmhlo.output_index` attribute) become results of the function, returning the value tied to them at the end.
//
// The conversion is all or nothing: on failure the module is left unchanged, with one error diagnostic
// attached.
//
// Example:
//
//	if err := openxla.Run(module, openxla.DefaultOptions()); err != nil {
//		klog.Errorf("Failed to convert: %+v", err)
//	}
package openxla
