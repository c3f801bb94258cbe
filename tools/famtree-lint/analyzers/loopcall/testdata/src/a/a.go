package a

import "context"

type CaseDetail struct {
	Persons []string
}

type CaseStore interface {
	GetCase(ctx context.Context, caseID int64) (*CaseDetail, error)
	CreatePerson(ctx context.Context, caseID int64, name string) error
}

func bad(ctx context.Context, caseIDs []int64, store CaseStore) {
	for _, id := range caseIDs {
		store.GetCase(ctx, id) // want "GetCase called inside loop"
	}
	for i := 0; i < 3; i++ {
		store.GetCase(ctx, 1) // want "GetCase called inside loop"
	}
}

func good(ctx context.Context, caseID int64, names []string, store CaseStore) {
	detail, _ := store.GetCase(ctx, caseID)
	for range detail.Persons {
	}

	// Writes have no batch form.
	for _, name := range names {
		store.CreatePerson(ctx, caseID, name)
	}

	var retries []func()
	for range names {
		retries = append(retries, func() { store.GetCase(ctx, caseID) })
	}
	_ = retries
}
