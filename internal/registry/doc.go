// Package registry declares the fixed catalog of calculator fields.
//
// A Registry is assembled once at startup from one or more Modules through a
// Builder, validated as a whole, and never modified afterwards. Its
// declaration order is significant: it is the order in which fields are
// listed for presentation and the order in which derivations run during a
// recomputation pass, so a derived field sees the already-recomputed values
// of fields declared before it and the previous values of fields declared
// after it.
package registry
