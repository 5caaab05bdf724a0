package feedback

import "context"

type StoreAPI interface {
	UserActive(ctx context.Context, orgID, userID string) (bool, error)
	CreateRequest(ctx context.Context, orgID, requesterID string, in CreateInput) (Request, error)
	GetRequest(ctx context.Context, orgID, requestID string) (Request, error)
	ListPending(ctx context.Context, orgID, requesteeID string) ([]Request, error)
	Respond(ctx context.Context, orgID, requestID, response string) (Request, error)
}

// Notifier delivers in-app notifications and reports success.
type Notifier interface {
	NotifyUsers(ctx context.Context, orgID string, userIDs []string, ntype, title, body string) bool
}
