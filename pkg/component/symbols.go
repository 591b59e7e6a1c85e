package component

import "reflect"

// Symbols exports this package to the yaegi interpreter. The value is
// assignable to interp.Exports; keys follow the "<import path>/<package name>"
// convention.
var Symbols = map[string]map[string]reflect.Value{
	ImportPath + "/component": {
		"Base": reflect.ValueOf((*Base)(nil)),
		"Kind": reflect.ValueOf((*Kind)(nil)),
	},
}
