package security

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"docstore/internal/model"
)

func doc(creator string, roles ...string) *model.StoredDocument {
	return &model.StoredDocument{
		ID:             "doc-1",
		CreatorID:      creator,
		Classification: model.ClassificationPublic,
		Roles:          roles,
	}
}

func TestEvaluator_Evaluate(t *testing.T) {
	ev := NewEvaluator([]string{"caseworker", "caseworker-probate"})

	tests := []struct {
		name   string
		target any
		perm   Permission
		caller Caller
		want   Decision
	}{
		{
			name:   "creator always allowed",
			target: doc("user-a"),
			perm:   PermissionDelete,
			caller: Caller{ID: "user-a"},
			want:   DecisionAllow,
		},
		{
			name:   "role match allowed regardless of creator",
			target: doc("user-a", "citizen"),
			perm:   PermissionRead,
			caller: Caller{ID: "user-b", Roles: []string{"citizen"}},
			want:   DecisionAllow,
		},
		{
			name:   "case worker bypasses ownership and roles",
			target: doc("user-a", "solicitor"),
			perm:   PermissionRead,
			caller: Caller{ID: "user-b", Roles: []string{"caseworker-probate"}},
			want:   DecisionAllow,
		},
		{
			name:   "no rule matches",
			target: doc("user-a", "solicitor"),
			perm:   PermissionRead,
			caller: Caller{ID: "user-c", Roles: []string{"citizen"}},
			want:   DecisionDeny,
		},
		{
			name:   "unauthenticated caller with no roles",
			target: doc("user-a", "citizen"),
			perm:   PermissionRead,
			caller: Caller{},
			want:   DecisionDeny,
		},
		{
			name:   "empty creator does not match empty caller id",
			target: doc(""),
			perm:   PermissionUpdate,
			caller: Caller{},
			want:   DecisionDeny,
		},
		{
			name:   "non access-controlled target",
			target: struct{ Name string }{Name: "thumbnail"},
			perm:   PermissionRead,
			caller: Caller{ID: "user-a"},
			want:   DecisionNotApplicable,
		},
		{
			name:   "nil target",
			target: nil,
			perm:   PermissionRead,
			caller: Caller{ID: "user-a"},
			want:   DecisionNotApplicable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ev.Evaluate(tt.target, tt.perm, tt.caller)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvaluator_PermissionIsUniformAcrossActions(t *testing.T) {
	ev := NewEvaluator([]string{"caseworker"})
	target := doc("user-a", "citizen")
	caller := Caller{ID: "user-b", Roles: []string{"citizen"}}

	for _, perm := range []Permission{PermissionRead, PermissionUpdate, PermissionDelete} {
		assert.Equal(t, DecisionAllow, ev.Evaluate(target, perm, caller), string(perm))
	}
}

func TestEvaluator_IsCaseWorker(t *testing.T) {
	ev := NewEvaluator([]string{"caseworker"})

	assert.True(t, ev.IsCaseWorker(Caller{ID: "x", Roles: []string{"citizen", "caseworker"}}))
	assert.False(t, ev.IsCaseWorker(Caller{ID: "x", Roles: []string{"citizen"}}))
	assert.False(t, ev.IsCaseWorker(Caller{}))
}

func TestCaller_Authenticated(t *testing.T) {
	assert.True(t, Caller{ID: "user-a"}.Authenticated())
	assert.False(t, Caller{Roles: []string{"citizen"}}.Authenticated())
}
