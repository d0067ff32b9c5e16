package grpc

import (
	"context"
	"crypto/tls"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Client calls auth.v1.SessionService
type Client struct {
	conn *grpc.ClientConn
}

// NewClient creates a new SessionService client. The connection is lazy.
func NewClient(addr string, useTLS bool, extra ...grpc.DialOption) (*Client, error) {
	var opts []grpc.DialOption
	if useTLS {
		tlsConfig := &tls.Config{
			InsecureSkipVerify: false,
		}
		opts = append(opts, grpc.WithTransportCredentials(credentials.NewTLS(tlsConfig)))
	} else {
		opts = append(opts, grpc.WithTransportCredentials(insecure.NewCredentials()))
	}

	opts = append(opts,
		grpc.WithKeepaliveParams(keepalive.ClientParameters{
			Time:                30 * time.Second,
			Timeout:             10 * time.Second,
			PermitWithoutStream: false,
		}),
	)

	conn, err := grpc.NewClient(addr, append(opts, extra...)...)
	if err != nil {
		return nil, err
	}

	return &Client{conn: conn}, nil
}

// ValidateAccessToken returns the token's claims as {user_id, roles, email_verified}
func (c *Client) ValidateAccessToken(ctx context.Context, accessToken string) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, SessionService_ValidateAccessToken_Full, wrapperspb.String(accessToken), out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListActiveSessions returns the user's token family summaries
func (c *Client) ListActiveSessions(ctx context.Context, userID uint) (*structpb.ListValue, error) {
	out := new(structpb.ListValue)
	if err := c.conn.Invoke(ctx, SessionService_ListActiveSessions_Full, wrapperspb.UInt64(uint64(userID)), out); err != nil {
		return nil, err
	}
	return out, nil
}

// Close closes the gRPC connection
func (c *Client) Close() {
	if c.conn != nil {
		c.conn.Close()
	}
}
