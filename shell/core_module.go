package shell

import (
	"context"
	"fmt"
	"strings"

	"github.com/kafka-ops/trifecta/codec"
	"github.com/kafka-ops/trifecta/zk"
)

// CoreModule implements the always-installed baseline commands: ZooKeeper
// navigation/read/write and session control. Its commands are not
// promptAware and belong to the "core" module, so running one never
// auto-switches the active module away from whatever the user last
// selected.
type CoreModule struct{}

func NewCoreModule() *CoreModule { return &CoreModule{} }

func (m *CoreModule) Name() string  { return coreModuleName }
func (m *CoreModule) Label() string { return "core" }
func (m *CoreModule) Prompt() string {
	return "trifecta> "
}
func (m *CoreModule) SessionVars() map[string]string { return nil }
func (m *CoreModule) Shutdown() error                { return nil }

func (m *CoreModule) Commands() []Command {
	return []Command{
		{Name: "zcd", Required: []Param{{Name: "path"}}, Handler: cmdZcd,
			Help: "zcd <path> — change the current ZooKeeper working path"},
		{Name: "zls", Optional: []Param{{Name: "path", Optional: true}}, Handler: cmdZls,
			Help: "zls [path] — list children of path or the current path"},
		{Name: "zget", Required: []Param{{Name: "key"}}, Flags: []FlagSpec{{Name: "t"}}, Handler: cmdZget,
			Help: "zget <key> [-t type] — read and decode a node's value"},
		{Name: "zput", Required: []Param{{Name: "key"}, {Name: "value"}}, Flags: []FlagSpec{{Name: "t"}}, Handler: cmdZput,
			Help: "zput <key> <value> [-t type] — encode and write a node's value"},
		{Name: "zmk", Required: []Param{{Name: "key"}}, Handler: cmdZmk,
			Help: "zmk <key> — create an empty node, with its parents"},
		{Name: "zrm", Required: []Param{{Name: "key"}}, Flags: []FlagSpec{{Name: "r", Bare: true}}, Handler: cmdZrm,
			Help: "zrm <key> [-r] — delete a node, recursively if -r"},
		{Name: "zexists", Required: []Param{{Name: "key"}}, Handler: cmdZexists,
			Help: "zexists <key> — report a node's stat fields"},
		{Name: "ztree", Optional: []Param{{Name: "path", Optional: true}}, Handler: cmdZtree,
			Help: "ztree [path] — pre-order dump of a subtree"},
		{Name: "zsess", Handler: cmdZsess, Help: "zsess — print the current ZooKeeper session id"},
		{Name: "zstat", Handler: cmdZstat, Help: "zstat — report ZooKeeper connection status"},
		{Name: "zruok", Handler: cmdZruok, Help: "zruok — liveness check"},
		{Name: "zreconnect", Handler: cmdZreconnect, Help: "zreconnect — force a new ZooKeeper session"},
	}
}

func cmdZcd(_ context.Context, sh *Context, args *Args) (interface{}, error) {
	key := args.Positional[0]
	if key == ".." {
		sh.ZkCwd = zk.Parent(sh.ZkCwd)
		return sh.ZkCwd, nil
	}
	sh.ZkCwd = sh.ResolveZk(key)
	return sh.ZkCwd, nil
}

func cmdZls(_ context.Context, sh *Context, args *Args) (interface{}, error) {
	path := sh.ZkCwd
	if len(args.Positional) > 0 {
		path = sh.ResolveZk(args.Positional[0])
	}
	return sh.ZK.GetChildren(path)
}

func cmdZget(_ context.Context, sh *Context, args *Args) (interface{}, error) {
	path := sh.ResolveZk(args.Positional[0])
	typ := codec.Type(args.FlagOr("t", string(codec.TypeString)))
	return sh.ZK.ReadTyped(path, typ)
}

func cmdZput(_ context.Context, sh *Context, args *Args) (interface{}, error) {
	path := sh.ResolveZk(args.Positional[0])
	value := args.Positional[1]
	typ := args.FlagOr("t", "")
	if typ == "" {
		typ = string(codec.Guess(value))
	}
	if err := sh.ZK.WriteTyped(path, value, codec.Type(typ)); err != nil {
		return nil, err
	}
	return path, nil
}

func cmdZmk(_ context.Context, sh *Context, args *Args) (interface{}, error) {
	path := sh.ResolveZk(args.Positional[0])
	return path, sh.ZK.EnsurePath(path)
}

func cmdZrm(_ context.Context, sh *Context, args *Args) (interface{}, error) {
	path := sh.ResolveZk(args.Positional[0])
	if args.Bare["r"] {
		return path, sh.ZK.DeleteRecursively(path)
	}
	return path, sh.ZK.Delete(path)
}

func cmdZexists(_ context.Context, sh *Context, args *Args) (interface{}, error) {
	path := sh.ResolveZk(args.Positional[0])
	exists, err := sh.ZK.Exists(path)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%s does not exist", path)
	}
	return sh.ZK.StatOf(path)
}

func cmdZtree(_ context.Context, sh *Context, args *Args) (interface{}, error) {
	path := sh.ZkCwd
	if len(args.Positional) > 0 {
		path = sh.ResolveZk(args.Positional[0])
	}
	var lines []string
	if err := walkTree(sh.ZK, path, &lines); err != nil {
		return nil, err
	}
	return strings.Join(lines, "\n"), nil
}

func walkTree(c *zk.Client, path string, lines *[]string) error {
	*lines = append(*lines, path)
	children, err := c.GetChildren(path)
	if err != nil {
		if zkErr, ok := err.(*zk.Error); ok && zkErr.Kind == zk.ErrKindNotFound {
			return nil
		}
		return err
	}
	for _, child := range children {
		childPath := zk.ResolvePath(path, child)
		if err := walkTree(c, childPath, lines); err != nil {
			return err
		}
	}
	return nil
}

func cmdZsess(_ context.Context, sh *Context, _ *Args) (interface{}, error) {
	return sh.ZK.SessionID(), nil
}

func cmdZstat(_ context.Context, sh *Context, _ *Args) (interface{}, error) {
	if sh.ZK.Connected() {
		return "connected", nil
	}
	return "disconnected", nil
}

func cmdZruok(_ context.Context, sh *Context, _ *Args) (interface{}, error) {
	if sh.ZK.Connected() {
		return "imok", nil
	}
	return nil, fmt.Errorf("not connected to zookeeper")
}

func cmdZreconnect(_ context.Context, sh *Context, _ *Args) (interface{}, error) {
	return nil, sh.ZK.Reconnect()
}
