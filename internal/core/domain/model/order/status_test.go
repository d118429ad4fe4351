package order_test

import (
	"fmt"
	"testing"

	"gasdelivery/internal/core/domain/model/order"
	"gasdelivery/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus_Constants(t *testing.T) {
	assert.Equal(t, 0, int(order.Unknown))
	assert.Equal(t, 1, int(order.Pending))
	assert.Equal(t, 2, int(order.InProgress))
	assert.Equal(t, 3, int(order.Delivered))
	assert.Equal(t, 4, int(order.Declined))
}

func TestStatus_Validate(t *testing.T) {
	for _, status := range order.AllStatuses() {
		t.Run(fmt.Sprintf("should validate %s status", status), func(t *testing.T) {
			require.NoError(t, status.Validate())
		})
	}

	t.Run("should reject Unknown and out of range values", func(t *testing.T) {
		for _, status := range []order.Status{order.Unknown, order.Status(5), order.Status(-1)} {
			err := status.Validate()

			require.Error(t, err)
			assert.IsType(t, &errs.ValueIsInvalidError{}, err)
		}
	})
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "Pending", order.Pending.String())
	assert.Equal(t, "InProgress", order.InProgress.String())
	assert.Equal(t, "Delivered", order.Delivered.String())
	assert.Equal(t, "Declined", order.Declined.String())
	assert.Equal(t, "Unknown", order.Status(99).String())
}

func TestParseStatus(t *testing.T) {
	tests := map[string]order.Status{
		"Pending":     order.Pending,
		"in_progress": order.InProgress,
		"INPROGRESS":  order.InProgress,
		" delivered ": order.Delivered,
		"declined":    order.Declined,
	}
	for input, want := range tests {
		got, err := order.ParseStatus(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, got, input)
	}

	_, err := order.ParseStatus("shipped")
	require.ErrorIs(t, err, errs.ErrValueIsInvalid)

	_, err = order.ParseStatus("unknown")
	require.Error(t, err)
}

func TestStatus_Transitions(t *testing.T) {
	legal := map[order.Status][]order.Status{
		order.Pending:    {order.InProgress, order.Declined},
		order.InProgress: {order.Delivered, order.Declined},
	}

	for _, from := range append(order.AllStatuses(), order.Unknown) {
		for _, to := range append(order.AllStatuses(), order.Unknown) {
			want := false
			for _, allowed := range legal[from] {
				if allowed == to {
					want = true
				}
			}

			got, err := from.Transition(to)
			if want {
				require.NoError(t, err, "%s -> %s", from, to)
				assert.Equal(t, to, got)
			} else {
				require.ErrorIs(t, err, order.ErrInvalidTransition, "%s -> %s", from, to)
			}
		}
	}
}

func TestStatus_NamedEdges(t *testing.T) {
	_, err := order.InProgress.Cancel()
	require.ErrorIs(t, err, order.ErrInvalidTransition)

	_, err = order.Pending.ReportFailure()
	require.ErrorIs(t, err, order.ErrInvalidTransition)

	s, err := order.Pending.Cancel()
	require.NoError(t, err)
	assert.Equal(t, order.Declined, s)

	s, err = order.InProgress.ReportFailure()
	require.NoError(t, err)
	assert.Equal(t, order.Declined, s)

	assert.True(t, order.Delivered.IsTerminal())
	assert.True(t, order.Declined.IsTerminal())
	assert.False(t, order.Pending.IsTerminal())
}

func TestStatus_ValidateCanHaveDriver(t *testing.T) {
	require.Error(t, order.Pending.ValidateCanHaveDriver(true))
	require.NoError(t, order.Pending.ValidateCanHaveDriver(false))
	require.NoError(t, order.InProgress.ValidateCanHaveDriver(true))
	require.Error(t, order.InProgress.ValidateCanHaveDriver(false))
	require.NoError(t, order.Delivered.ValidateCanHaveDriver(true))
	require.Error(t, order.Delivered.ValidateCanHaveDriver(false))
	require.NoError(t, order.Declined.ValidateCanHaveDriver(true))
	require.NoError(t, order.Declined.ValidateCanHaveDriver(false))
}
