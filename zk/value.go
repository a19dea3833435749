package zk

import "github.com/kafka-ops/trifecta/codec"

// ReadTyped reads path and decodes its bytes as typ.
func (c *Client) ReadTyped(path string, typ codec.Type) (string, error) {
	data, err := c.Read(path)
	if err != nil {
		return "", err
	}
	return codec.Decode(data, typ)
}

// WriteTyped implements zput's semantics: delete the node if present,
// ensure its parents exist, then create it with text encoded as typ.
func (c *Client) WriteTyped(path, text string, typ codec.Type) error {
	data, err := codec.Encode(text, typ)
	if err != nil {
		return err
	}

	exists, err := c.Exists(path)
	if err != nil {
		return err
	}
	if exists {
		if err := c.Delete(path); err != nil {
			return err
		}
	}
	if err := c.EnsureParents(path); err != nil {
		return err
	}
	return c.Create(path, data)
}
