// Package expr implements the sandboxed single-expression language used
// by DDF parse/read/write hooks and matchexpr (SPEC_FULL §4.5), backed by
// gopher-lua. Evaluation never panics the caller: a parse or runtime
// error is converted into a drcerr and must never abort the containing
// scheduler tick.
package expr

import (
	"fmt"
	"sync"

	lua "github.com/yuin/gopher-lua"

	"github.com/dresden-mesh/meshgwd/drcerr"
)

// ItemView is the read/write surface an expression sees as Item.val
// (SPEC_FULL §4.5). Get/Set operate on resource.Item's Value through the
// caller's own marshalling, kept untyped here to avoid an import cycle.
type ItemView interface {
	Get() interface{}
	Set(interface{}) error
}

// AttrView is the read-only surface an expression sees as Attr.val: the
// incoming cluster attribute's parsed value.
type AttrView interface {
	Get() interface{}
}

// ResourceView backs R.item("<suffix>"): fetch another item's view on
// the current resource, for expressions that read sibling items.
type ResourceView interface {
	Item(suffix string) (ItemView, bool)
}

// Compiled holds a parsed-but-not-yet-run Lua chunk, so repeated
// evaluation (SPEC_FULL §4.5: "compiled once per DDF load and reused")
// skips re-parsing.
type Compiled struct {
	mu    sync.Mutex
	proto *lua.FunctionProto
	src   string
}

// Compile parses source once. The returned Compiled is safe to Eval
// concurrently; each Eval runs in its own *lua.LState.
func Compile(source string) (*Compiled, error) {
	chunk, err := parse(source)
	if err != nil {
		return nil, drcerr.Wrap(err, drcerr.Decode, "expr.Compile", "invalid expression").WithDetailsf("src=%q", source)
	}
	return &Compiled{proto: chunk, src: source}, nil
}

func parse(source string) (*lua.FunctionProto, error) {
	// Wrap the expression as a Lua chunk returning its value, matching
	// the "single-expression language" contract: callers write `x + 1`,
	// not a full statement list.
	wrapped := "return (" + source + ")"
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	defer L.Close()

	fn, err := L.LoadString(wrapped)
	if err != nil {
		return nil, err
	}
	if fn.Proto == nil {
		return nil, fmt.Errorf("expr: compiled chunk has no prototype")
	}
	return fn.Proto, nil
}

// Scope is the set of bindings exposed to a single evaluation.
type Scope struct {
	Resource ResourceView
	Item     ItemView
	Attr     AttrView
}

// Eval runs the compiled expression against scope and returns its result
// as a Go value (bool, float64, string, or nil). Errors are always
// wrapped as drcerr and never propagate as a panic.
func (c *Compiled) Eval(scope Scope) (result interface{}, err error) {
	c.mu.Lock()
	proto := c.proto
	c.mu.Unlock()

	L := newSandboxedState()
	defer L.Close()

	installScope(L, scope)

	defer func() {
		if r := recover(); r != nil {
			err = drcerr.New(drcerr.InvalidState, "expr.Eval", "expression panicked").WithDetailsf("recovered=%v src=%q", r, c.src)
		}
	}()

	fn := L.NewFunctionFromProto(proto)
	L.Push(fn)
	if callErr := L.PCall(0, 1, nil); callErr != nil {
		return nil, drcerr.Wrap(callErr, drcerr.InvalidState, "expr.Eval", "expression evaluation failed").WithDetailsf("src=%q", c.src)
	}

	ret := L.Get(-1)
	L.Pop(1)
	return luaToGo(ret), nil
}

// newSandboxedState creates a Lua VM with only the base, string, math and
// table libraries loaded, then strips the globals that would allow filesystem
// or process access (SPEC_FULL §4.5 "pure with respect to the engine").
func newSandboxedState() *lua.LState {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	lua.OpenBase(L)
	lua.OpenString(L)
	lua.OpenMath(L)
	lua.OpenTable(L)

	for _, forbidden := range []string{"os", "io", "package", "load", "loadstring", "dofile", "loadfile", "require", "print", "collectgarbage"} {
		L.SetGlobal(forbidden, lua.LNil)
	}
	return L
}

func installScope(L *lua.LState, scope Scope) {
	itemTable := L.NewTable()
	itemTable.RawSetString("val", goToLua(L, safeGet(scope.Item)))
	L.SetGlobal("Item", itemTable)

	attrTable := L.NewTable()
	attrTable.RawSetString("val", goToLua(L, safeGetAttr(scope.Attr)))
	L.SetGlobal("Attr", attrTable)

	rTable := L.NewTable()
	rTable.RawSetString("item", L.NewFunction(func(L *lua.LState) int {
		suffix := L.CheckString(1)
		if scope.Resource == nil {
			L.Push(lua.LNil)
			return 1
		}
		view, ok := scope.Resource.Item(suffix)
		if !ok {
			L.Push(lua.LNil)
			return 1
		}
		sub := L.NewTable()
		sub.RawSetString("val", goToLua(L, safeGet(view)))
		L.Push(sub)
		return 1
	}))
	L.SetGlobal("R", rTable)
}

func safeGet(v ItemView) interface{} {
	if v == nil {
		return nil
	}
	return v.Get()
}

func safeGetAttr(v AttrView) interface{} {
	if v == nil {
		return nil
	}
	return v.Get()
}

func goToLua(L *lua.LState, v interface{}) lua.LValue {
	switch x := v.(type) {
	case nil:
		return lua.LNil
	case bool:
		return lua.LBool(x)
	case int:
		return lua.LNumber(x)
	case int64:
		return lua.LNumber(x)
	case uint64:
		return lua.LNumber(x)
	case float64:
		return lua.LNumber(x)
	case string:
		return lua.LString(x)
	default:
		return lua.LNil
	}
}

func luaToGo(v lua.LValue) interface{} {
	switch x := v.(type) {
	case lua.LBool:
		return bool(x)
	case lua.LNumber:
		return float64(x)
	case lua.LString:
		return string(x)
	default:
		return nil
	}
}
