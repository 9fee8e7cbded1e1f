package department

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staffdesk/internal/core/apperror"
	"staffdesk/internal/core/id"
	"staffdesk/internal/core/tx"
	"staffdesk/internal/domain/domaintest"
)

type memRepo struct {
	*domaintest.Repo[*Department]
}

func (r memRepo) CodeTaken(_ context.Context, code string, excludeID id.ID) (bool, error) {
	for _, d := range r.All() {
		if d.ID != excludeID && d.Code == code {
			return true, nil
		}
	}
	return false, nil
}

func (r memRepo) HasChildren(_ context.Context, parentID id.ID) (bool, error) {
	for _, d := range r.All() {
		if d.ParentID != nil && *d.ParentID == parentID {
			return true, nil
		}
	}
	return false, nil
}

func newService() (*Service, context.Context) {
	repo := memRepo{domaintest.NewRepo[*Department]()}
	return NewService(repo, domaintest.Sequence(), ServiceDeps{}), tx.WithManager(context.Background(), &domaintest.Tx{})
}

func TestService_CreateGeneratesCode(t *testing.T) {
	svc, ctx := newService()

	d := NewDepartment("Engineering")
	require.NoError(t, svc.Create(ctx, d))
	assert.Equal(t, "DEP-001", d.Code)

	dup := NewDepartment("Platform")
	dup.Code = "DEP-001"
	err := svc.Create(ctx, dup)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeDuplicate, appErr.Code)
}

func TestService_DeleteKeepsHierarchy(t *testing.T) {
	svc, ctx := newService()

	parent := NewDepartment("Engineering")
	require.NoError(t, svc.Create(ctx, parent))
	child := NewDepartment("Platform")
	child.ParentID = &parent.ID
	require.NoError(t, svc.Create(ctx, child))

	err := svc.Delete(ctx, parent.ID)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeHasDependents, appErr.Code)

	require.NoError(t, svc.Delete(ctx, child.ID))
	require.NoError(t, svc.Delete(ctx, parent.ID))
}

func TestDepartment_Validate(t *testing.T) {
	d := NewDepartment(" ")
	assert.Error(t, d.Validate(context.Background()))

	d = NewDepartment("Finance")
	d.ParentID = &d.ID
	assert.Error(t, d.Validate(context.Background()))
}

func TestDefinition(t *testing.T) {
	def := Definition()
	assert.Equal(t, "Department", def.Label)

	head, ok := def.Field("headId")
	require.True(t, ok)
	assert.Equal(t, "employee", head.ReferenceType)
	assert.Equal(t, "Head", head.Label)

	assert.Equal(t, []string{"code", "name", "costCenter", "location"}, def.Schema().SearchableFields())
}
