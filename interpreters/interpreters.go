// Package interpreters gathers the standard attribute interpreters.
package interpreters

import (
	"github.com/Comcast/treetags/core"
	"github.com/Comcast/treetags/interpreters/ecmascript"
	"github.com/Comcast/treetags/interpreters/literal"
)

func Standard() core.InterpretersMap {
	is := core.NewInterpretersMap()

	es := ecmascript.NewInterpreter()
	is["ecmascript"] = es
	is["ecmascript-5.1"] = es

	ext := ecmascript.NewInterpreter()
	ext.Extended = true
	is["ecmascript-ext"] = ext
	is["ecmascript-5.1-ext"] = ext

	iso := ecmascript.NewInterpreter()
	iso.Isolate = true
	is["ecmascript-isolated"] = iso

	is["literal"] = literal.NewInterpreter()

	return is
}
