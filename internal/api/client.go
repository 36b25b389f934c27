package api

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/matheus3301/wppbot/internal/bus"
	"github.com/matheus3301/wppbot/internal/engine"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"
)

// Client talks to a running daemon over its Unix socket.
type Client struct {
	conn *grpc.ClientConn
}

// Dial creates a client for the daemon listening on socketPath. The
// connection is established lazily on the first call.
func Dial(socketPath string) (*Client, error) {
	conn, err := grpc.NewClient(
		"unix://"+socketPath,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		return nil, fmt.Errorf("dial daemon: %w", err)
	}
	return &Client{conn: conn}, nil
}

// Close releases the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) invoke(ctx context.Context, method string, req, resp any) error {
	in, err := toStruct(req)
	if err != nil {
		return err
	}
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, FullMethod(method), in, out); err != nil {
		return err
	}
	if resp == nil {
		return nil
	}
	return fromStruct(out, resp)
}

// Status returns the session state and counters.
func (c *Client) Status(ctx context.Context) (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.invoke(ctx, MethodGetStatus, struct{}{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SendText sends message to to.
func (c *Client) SendText(ctx context.Context, to, message string) (*SendResponse, error) {
	var resp SendResponse
	if err := c.invoke(ctx, MethodSendText, SendRequest{To: to, Message: message}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListContacts returns stored contacts.
func (c *Client) ListContacts(ctx context.Context) (*ContactsResponse, error) {
	var resp ContactsResponse
	if err := c.invoke(ctx, MethodListContacts, struct{}{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UpdateContact applies operator edits to a contact.
func (c *Client) UpdateContact(ctx context.Context, req UpdateContactRequest) (bool, error) {
	var resp UpdateContactResponse
	if err := c.invoke(ctx, MethodUpdateContact, req, &resp); err != nil {
		return false, err
	}
	return resp.Updated, nil
}

// ListGroups returns stored groups.
func (c *Client) ListGroups(ctx context.Context) (*GroupsResponse, error) {
	var resp GroupsResponse
	if err := c.invoke(ctx, MethodListGroups, struct{}{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SyncDirectory runs a directory synchronisation and waits for it.
func (c *Client) SyncDirectory(ctx context.Context) (*engine.SyncResult, error) {
	var resp engine.SyncResult
	if err := c.invoke(ctx, MethodSyncDirectory, struct{}{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListMessages returns logged messages.
func (c *Client) ListMessages(ctx context.Context, req ListMessagesRequest) (*MessagesResponse, error) {
	var resp MessagesResponse
	if err := c.invoke(ctx, MethodListMessages, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SearchMessages finds messages containing the query.
func (c *Client) SearchMessages(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	var resp SearchResponse
	if err := c.invoke(ctx, MethodSearchMessages, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListTemplates returns stored templates.
func (c *Client) ListTemplates(ctx context.Context) (*TemplatesResponse, error) {
	var resp TemplatesResponse
	if err := c.invoke(ctx, MethodListTemplates, struct{}{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SaveTemplate creates or updates a template.
func (c *Client) SaveTemplate(ctx context.Context, req TemplateRequest) error {
	return c.invoke(ctx, MethodSaveTemplate, req, nil)
}

// DeleteTemplate removes a template by name.
func (c *Client) DeleteTemplate(ctx context.Context, name string) (bool, error) {
	var resp DeleteTemplateResponse
	if err := c.invoke(ctx, MethodDeleteTemplate, TemplateRequest{Name: name}, &resp); err != nil {
		return false, err
	}
	return resp.Deleted, nil
}

// ListConfig returns every config entry.
func (c *Client) ListConfig(ctx context.Context) (*ConfigResponse, error) {
	var resp ConfigResponse
	if err := c.invoke(ctx, MethodListConfig, struct{}{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SetConfig writes one config entry.
func (c *Client) SetConfig(ctx context.Context, key, value string) error {
	return c.invoke(ctx, MethodSetConfig, ConfigRequest{Key: key, Value: value}, nil)
}

// WatchEvents calls fn for each event whose kind starts with prefix until
// ctx ends, the daemon closes the stream or fn returns an error.
func (c *Client) WatchEvents(ctx context.Context, prefix string, fn func(bus.Event) error) error {
	stream, err := c.conn.NewStream(ctx, &ServiceDesc.Streams[0], FullMethod(MethodWatchEvents))
	if err != nil {
		return err
	}
	in, err := toStruct(WatchRequest{Prefix: prefix})
	if err != nil {
		return err
	}
	if err := stream.SendMsg(in); err != nil {
		return err
	}
	if err := stream.CloseSend(); err != nil {
		return err
	}
	for {
		out := new(structpb.Struct)
		if err := stream.RecvMsg(out); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		var evt bus.Event
		if err := fromStruct(out, &evt); err != nil {
			return err
		}
		if err := fn(evt); err != nil {
			return err
		}
	}
}
