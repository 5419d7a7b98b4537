// Package convert is a generic dialect conversion engine over the ir package.
//
// A conversion is described by:
//
//   - a TypeConverter, mapping source types to target types;
//   - a Target, telling which operations are legal once the conversion is done;
//   - a PatternSet, the rewrite rules, each rooted on one operation kind (or optypes.Any);
//   - a state S of the caller's choosing, passed by reference to every pattern.
//
// Apply rewrites the illegal operations of a module until none is left. It is all or nothing: if some
// operation cannot be legalized, the module is restored to its exact original state.
package convert
