package domain_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/nikolayk812/ordercore/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestActor_CanActFor(t *testing.T) {
	ownerID := uuid.New()

	tests := []struct {
		name  string
		actor domain.Actor
		want  bool
	}{
		{name: "owner", actor: domain.User(ownerID), want: true},
		{name: "another user", actor: domain.User(uuid.New())},
		{name: "manager", actor: domain.User(uuid.New(), domain.RoleManager), want: true},
		{name: "admin", actor: domain.User(uuid.New(), domain.RoleAdmin), want: true},
		{name: "system", actor: domain.System(), want: true},
		{name: "anonymous", actor: domain.Anonymous()},
		{name: "nil user id", actor: domain.User(uuid.Nil, domain.RoleAdmin)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.actor.CanActFor(ownerID))
		})
	}
}

func TestActor_String(t *testing.T) {
	id := uuid.New()

	assert.Equal(t, "user:"+id.String(), domain.User(id).String())
	assert.Equal(t, "system", domain.System().String())
	assert.Equal(t, "anonymous", domain.Anonymous().String())
}
