package persistence

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"

	"github.com/opencity-sim/simcore/analytics"
)

func TestAgentString(t *testing.T) {
	assert.Equal(t, "vehicle", agentString(analytics.AgentVehicle))
	assert.Equal(t, "pedestrian", agentString(analytics.AgentPedestrian))
}

func TestIsNoRows(t *testing.T) {
	assert.True(t, IsNoRows(pgx.ErrNoRows))
	assert.True(t, IsNoRows(fmt.Errorf("query: %w", pgx.ErrNoRows)))
	assert.False(t, IsNoRows(errors.New("some other failure")))
}
