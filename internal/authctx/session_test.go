package authctx

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWithUser(t *testing.T) {
	_, ok := UserIDFromContext(context.Background())
	require.False(t, ok)

	ctx := WithUser(context.Background(), "user-1", "sid-1")
	uid, ok := UserIDFromContext(ctx)
	require.True(t, ok)
	require.Equal(t, "user-1", uid)

	sid, ok := SessionIDFromContext(ctx)
	require.True(t, ok)
	require.Equal(t, "sid-1", sid)
}
