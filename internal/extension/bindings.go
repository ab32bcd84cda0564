package extension

import (
	"encoding/json"
	"strconv"

	lua "github.com/Shopify/go-lua"

	"github.com/tavisham/lobbygate/internal/changeset"
)

const storeHandleName = "lobbygate.store"

// storeHandle is the userdata behind api.store(name).
type storeHandle struct {
	name   string
	reader StoreReader
}

// register installs the api binding table and the store handle
// metatable. The table is fixed at host construction; programs cannot
// grow the surface at runtime.
func (h *Host) register() {
	l := h.state

	lua.NewMetaTable(l, storeHandleName)
	l.NewTable()
	lua.SetFunctions(l, []lua.RegistryFunction{
		{Name: "field", Function: h.storeField},
	}, 0)
	l.SetField(-2, "__index")
	l.Pop(1)

	l.NewTable()
	lua.SetFunctions(l, []lua.RegistryFunction{
		{Name: "timestamp", Function: h.timestamp},
		{Name: "set_response", Function: h.setResponse},
		{Name: "get_response", Function: h.getResponse},
		{Name: "store", Function: h.store},
		{Name: "get_coins", Function: h.getCoins},
		{Name: "update_coins", Function: h.updateCoins},
	}, 0)
	l.SetGlobal("api")
}

func (h *Host) timestamp(l *lua.State) int {
	l.PushInteger(int(h.env.Now()))
	return 1
}

func (h *Host) setResponse(l *lua.State) int {
	key := lua.CheckString(l, 1)
	value := lua.CheckString(l, 2)
	h.env.SetResponse(key, value)
	return 0
}

func (h *Host) getResponse(l *lua.State) int {
	key := lua.CheckString(l, 1)
	l.PushString(h.env.GetResponse(key))
	return 1
}

func (h *Host) store(l *lua.State) int {
	name := lua.CheckString(l, 1)
	if h.env.Store == nil {
		l.PushNil()
		return 1
	}
	reader := h.env.Store(name)
	if reader == nil {
		l.PushNil()
		return 1
	}
	l.PushUserData(&storeHandle{name: name, reader: reader})
	lua.SetMetaTableNamed(l, storeHandleName)
	return 1
}

// storeField reads one field of one record: handle:field(kind, key, name).
// Missing records and missing fields both read as the empty string.
func (h *Host) storeField(l *lua.State) int {
	handle, ok := lua.CheckUserData(l, 1, storeHandleName).(*storeHandle)
	if !ok {
		lua.ArgumentError(l, 1, "store handle expected")
		return 0
	}
	kind := lua.CheckString(l, 2)
	key := lua.CheckString(l, 3)
	field := lua.CheckString(l, 4)

	doc, err := handle.reader.GetDoc(h.ctx, changeset.Kind(kind), key)
	if err != nil {
		l.PushString("")
		return 1
	}
	l.PushString(formatDocValue(doc[field]))
	return 1
}

func (h *Host) getCoins(l *lua.State) int {
	if h.env.GetCoins == nil {
		l.PushInteger(-1)
		return 1
	}
	coins, ok := h.env.GetCoins(h.ctx)
	if !ok {
		l.PushInteger(-1)
		return 1
	}
	l.PushInteger(int(coins))
	return 1
}

func (h *Host) updateCoins(l *lua.State) int {
	if h.env.UpdateCoins == nil {
		l.PushBoolean(false)
		return 1
	}
	value := lua.CheckInteger(l, 1)
	adjust := false
	if l.Top() >= 2 {
		adjust = l.ToBoolean(2)
	}
	l.PushBoolean(h.env.UpdateCoins(h.ctx, int64(value), adjust))
	return 1
}

// formatDocValue renders a decoded record field as the string a program
// sees. Documents decode from JSON, so numbers arrive as float64.
func formatDocValue(v any) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return value
	case bool:
		return strconv.FormatBool(value)
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	default:
		encoded, err := json.Marshal(value)
		if err != nil {
			return ""
		}
		return string(encoded)
	}
}
