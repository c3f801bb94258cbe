package handlers

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/famtree/internal/domain"
	"github.com/ersonp/famtree/internal/domain/entities"
	"github.com/ersonp/famtree/internal/domain/mocks"
)

func strPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }

func TestCaseHandler_HandleCreate(t *testing.T) {
	tests := []struct {
		name        string
		title       string
		description string
		status      string
		wantStatus  entities.CaseStatus
		errMsg      string
	}{
		{name: "defaults to draft", title: "山田家", wantStatus: entities.CaseStatusDraft},
		{name: "explicit status", title: "山田家", status: "in_progress", wantStatus: entities.CaseStatusInProgress},
		{name: "with description", title: "山田家", description: "遺産分割", wantStatus: entities.CaseStatusDraft},
		{name: "invalid status", title: "山田家", status: "closed", errMsg: "invalid case status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := mocks.NewGateway()
			handler := NewCaseHandler(gw)

			c, err := handler.HandleCreate(context.Background(), tt.title, tt.description, tt.status)
			if tt.errMsg != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				assert.Zero(t, gw.CountCalls("CreateCase"))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.title, c.Title)
			assert.Equal(t, tt.wantStatus, c.Status)
			if tt.description != "" {
				require.NotNil(t, c.Description)
				assert.Equal(t, tt.description, *c.Description)
			} else {
				assert.Nil(t, c.Description)
			}
		})
	}
}

func TestCaseHandler_HandleShow(t *testing.T) {
	gw := mocks.NewGateway()
	caseID := gw.SeedCase("山田家")
	gw.SeedPerson(caseID, entities.Person{Name: "山田花子", IsAlive: true})
	gw.SeedPerson(caseID, entities.Person{Name: "山田太郎", IsDecedent: true})

	handler := NewCaseHandler(gw)
	summary, err := handler.HandleShow(context.Background(), caseID)
	require.NoError(t, err)

	assert.Equal(t, "山田家", summary.Title)
	assert.Len(t, summary.Persons, 2)
	assert.Equal(t, "山田太郎", summary.Decedent)

	_, err = handler.HandleShow(context.Background(), 999)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCaseHandler_HandleUpdate(t *testing.T) {
	gw := mocks.NewGateway()
	caseID := gw.SeedCase("before")
	handler := NewCaseHandler(gw)
	ctx := context.Background()

	c, err := handler.HandleUpdate(ctx, caseID, CaseUpdate{Title: strPtr("after"), Status: strPtr("completed")})
	require.NoError(t, err)
	assert.Equal(t, "after", c.Title)
	assert.Equal(t, entities.CaseStatusCompleted, c.Status)

	_, err = handler.HandleUpdate(ctx, caseID, CaseUpdate{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nothing to update")

	_, err = handler.HandleUpdate(ctx, caseID, CaseUpdate{Status: strPtr("closed")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid case status")

	assert.Equal(t, 1, gw.CountCalls("UpdateCase"))
}

func TestCaseHandler_HandleListAndDelete(t *testing.T) {
	gw := mocks.NewGateway()
	first := gw.SeedCase("first")
	gw.SeedCase("second")
	handler := NewCaseHandler(gw)
	ctx := context.Background()

	cases, err := handler.HandleList(ctx)
	require.NoError(t, err)
	assert.Len(t, cases, 2)

	require.NoError(t, handler.HandleDelete(ctx, first))

	cases, err = handler.HandleList(ctx)
	require.NoError(t, err)
	require.Len(t, cases, 1)
	assert.Equal(t, "second", cases[0].Title)

	err = handler.HandleDelete(ctx, first)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCaseHandler_StoreError(t *testing.T) {
	gw := mocks.NewGateway()
	gw.Err = &domain.GatewayError{Op: "list cases", Kind: domain.KindTransport, Err: errors.New("connection refused")}

	_, err := NewCaseHandler(gw).HandleList(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrTransport)
	assert.Contains(t, err.Error(), "listing cases")
}
