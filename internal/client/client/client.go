package client

import (
	"context"

	"github.com/dmitrijs2005/here/internal/models"
)

type Client interface {
	GetServerInfo(ctx context.Context) (models.AppInfo, error)
	PostClientInfo(ctx context.Context, record models.PresenceRecord) (*models.PostClientInfoResponse, error)
	GetClientInfo(ctx context.Context, account string, passwd *string) (*models.GetClientInfoResponse, error)
}
