package model

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestRoomIDOrderIndependent(t *testing.T) {
	a := uuid.New()
	b := uuid.New()

	assert.Equal(t, RoomID(a, b), RoomID(b, a))

	parts := strings.Split(RoomID(a, b), "_")
	assert.Len(t, parts, 2)
	assert.Less(t, parts[0], parts[1])
	assert.ElementsMatch(t, []string{a.String(), b.String()}, parts)
}
