// Package zk implements the ZooKeeper view: typed read/write of keys,
// topology enumeration (brokers, topic partitions, consumer groups) and
// recursive listing/delete, built on top of a real ZooKeeper session.
package zk

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	goZk "github.com/go-zookeeper/zk"
	"github.com/jellydator/ttlcache/v2"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

// topologyCacheTTL bounds how stale a cached broker/topic listing can be.
// Long enough that a single scan's partition fan-out (which calls
// GetBrokerList once per consumer it dials) doesn't re-walk /brokers/ids on
// every partition, short enough that it's invisible to an interactive user.
const topologyCacheTTL = 5 * time.Second

// Client is the thread-safe ZooKeeper handle: created at REPL start,
// reconnected on explicit zreconnect, closed at shutdown.
type Client struct {
	cfg    Config
	logger *zap.Logger

	mu       sync.Mutex // serializes reconnect
	conn     *goZk.Conn
	events   <-chan goZk.Event
	cancel   context.CancelFunc
	hasSess  *atomic.Bool
	topology *ttlcache.Cache
}

// New dials the configured ZooKeeper ensemble and returns a ready Client.
func New(cfg Config, logger *zap.Logger) (*Client, error) {
	topology := ttlcache.NewCache()
	topology.SetTTL(topologyCacheTTL)

	c := &Client{
		cfg:      cfg,
		logger:   logger.Named("zk"),
		hasSess:  atomic.NewBool(false),
		topology: topology,
	}
	if err := c.dial(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Client) dial() error {
	conn, events, err := goZk.Connect(c.cfg.Servers, c.cfg.SessionTimeout)
	if err != nil {
		return fmt.Errorf("failed to connect to zookeeper ensemble: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	c.conn = conn
	c.events = events
	c.cancel = cancel

	go c.watchState(ctx, events)
	return nil
}

func (c *Client) watchState(ctx context.Context, events <-chan goZk.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			switch ev.State {
			case goZk.StateHasSession:
				c.hasSess.Store(true)
			case goZk.StateDisconnected, goZk.StateExpired:
				c.hasSess.Store(false)
			}
		}
	}
}

// Connected reports whether the session is currently established, per the
// zruok/zstat commands.
func (c *Client) Connected() bool {
	return c.hasSess.Load()
}

// SessionID returns the current ZooKeeper session id (zsess).
func (c *Client) SessionID() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.SessionID()
}

// Reconnect closes the current session and redials the ensemble, serialized
// against concurrent reconnects.
func (c *Client) Reconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.logger.Info("reconnecting to zookeeper ensemble", zap.Strings("servers", c.cfg.Servers))
	if c.cancel != nil {
		c.cancel()
	}
	if c.conn != nil {
		c.conn.Close()
	}
	c.hasSess.Store(false)
	c.topology.Purge()
	return c.dial()
}

// Close releases the ZooKeeper session. Idempotent.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
	}
	if c.conn != nil {
		c.conn.Close()
	}
	c.topology.Close()
}

// Exists reports whether path has a node.
func (c *Client) Exists(path string) (bool, error) {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()

	ok, _, err := conn.Exists(path)
	if err != nil {
		return false, c.classify(path, err)
	}
	return ok, nil
}

// Read returns the raw bytes stored at path.
func (c *Client) Read(path string) ([]byte, error) {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()

	data, _, err := conn.Get(path)
	if err != nil {
		return nil, c.classify(path, err)
	}
	return data, nil
}

// Stat describes a node's metadata, used by zexists.
type Stat struct {
	Czxid          int64
	Mzxid          int64
	Ctime          time.Time
	Mtime          time.Time
	Version        int32
	NumChildren    int32
	EphemeralOwner int64
}

// StatOf returns Stat for path.
func (c *Client) StatOf(path string) (Stat, error) {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()

	_, st, err := conn.Get(path)
	if err != nil {
		return Stat{}, c.classify(path, err)
	}
	return Stat{
		Czxid:          st.Czxid,
		Mzxid:          st.Mzxid,
		Ctime:          time.UnixMilli(st.Ctime),
		Mtime:          time.UnixMilli(st.Mtime),
		Version:        st.Version,
		NumChildren:    st.NumChildren,
		EphemeralOwner: st.EphemeralOwner,
	}, nil
}

// Create writes a new persistent node at path with the given payload. The
// parent must already exist; use EnsureParents/EnsurePath otherwise.
func (c *Client) Create(path string, data []byte) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()

	_, err := conn.Create(path, data, 0, goZk.WorldACL(goZk.PermAll))
	if err != nil {
		return c.classify(path, err)
	}
	return nil
}

// EnsureParents creates every ancestor of path that does not already exist,
// as empty nodes, without creating path itself.
func (c *Client) EnsureParents(path string) error {
	for _, ancestor := range Ancestors(path) {
		if err := c.ensureNode(ancestor); err != nil {
			return err
		}
	}
	return nil
}

// EnsurePath creates path and every missing ancestor, as empty nodes.
func (c *Client) EnsurePath(path string) error {
	if err := c.EnsureParents(path); err != nil {
		return err
	}
	return c.ensureNode(path)
}

func (c *Client) ensureNode(path string) error {
	exists, err := c.Exists(path)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	if err := c.Create(path, []byte{}); err != nil {
		if zkErr, ok := err.(*Error); ok && zkErr.Kind == ErrKindNotFound {
			return err
		}
		// Another racing client may have created it first; tolerate NodeExists.
		if exists, existsErr := c.Exists(path); existsErr == nil && exists {
			return nil
		}
		return err
	}
	return nil
}

// Delete removes a single node. Fails with ZKNotFound if it does not exist.
func (c *Client) Delete(path string) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()

	err := conn.Delete(path, -1)
	if err != nil {
		return c.classify(path, err)
	}
	return nil
}

// DeleteRecursively performs a post-order traversal of path, deleting every
// descendant before path itself. It continues past missing children but
// fails with ZKDeleteFailed on any other error.
func (c *Client) DeleteRecursively(path string) error {
	children, err := c.GetChildren(path)
	if err != nil {
		if zkErr, ok := err.(*Error); ok && zkErr.Kind == ErrKindNotFound {
			return nil
		}
		return deleteFailed(path, err)
	}

	for _, child := range children {
		childPath := joinSegments(append(splitSegments(path), child))
		if err := c.DeleteRecursively(childPath); err != nil {
			return err
		}
	}

	if err := c.Delete(path); err != nil {
		if zkErr, ok := err.(*Error); ok && zkErr.Kind == ErrKindNotFound {
			return nil
		}
		return deleteFailed(path, err)
	}
	return nil
}

// GetChildren lists the names of path's direct children, sorted for
// deterministic output.
func (c *Client) GetChildren(path string) ([]string, error) {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()

	children, _, err := conn.Children(path)
	if err != nil {
		return nil, c.classify(path, err)
	}
	sort.Strings(children)
	return children, nil
}

func (c *Client) classify(path string, err error) error {
	switch err {
	case goZk.ErrNoNode:
		return notFound(path)
	case goZk.ErrConnectionClosed, goZk.ErrNoServer:
		return connectionLost(err)
	default:
		return err
	}
}
