package firestore

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"golang.org/x/oauth2/google"
	firestorev1 "google.golang.org/api/firestore/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const (
	postsCollection = "posts"
	usersCollection = "users"

	serverTime = "REQUEST_TIME"
)

// Config selects the project and how to authenticate against it
type Config struct {
	ProjectID string

	// CredentialsFile is a service account JSON key. Empty uses application default credentials.
	CredentialsFile string

	// Endpoint overrides the API root and disables authentication (emulator, tests)
	Endpoint string
}

// Store is a Firestore REST client bound to one project's default database
type Store struct {
	docs      *firestorev1.ProjectsDatabasesDocumentsService
	projectID string
}

// NewStore creates a Firestore client
func NewStore(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("firestore project ID is required")
	}

	var opts []option.ClientOption
	switch {
	case cfg.Endpoint != "":
		opts = append(opts, option.WithEndpoint(cfg.Endpoint), option.WithoutAuthentication())
	case cfg.CredentialsFile != "":
		data, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read firestore credentials: %w", err)
		}
		creds, err := google.CredentialsFromJSON(ctx, data, firestorev1.DatastoreScope)
		if err != nil {
			return nil, fmt.Errorf("failed to parse firestore credentials: %w", err)
		}
		opts = append(opts, option.WithCredentials(creds))
	}

	svc, err := firestorev1.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}

	return &Store{
		docs:      svc.Projects.Databases.Documents,
		projectID: cfg.ProjectID,
	}, nil
}

func (s *Store) database() string {
	return "projects/" + s.projectID + "/databases/(default)"
}

func (s *Store) root() string {
	return s.database() + "/documents"
}

func (s *Store) docName(collection, id string) string {
	return s.root() + "/" + collection + "/" + id
}

func (s *Store) commit(ctx context.Context, writes ...*firestorev1.Write) (*firestorev1.CommitResponse, error) {
	return s.docs.Commit(s.database(), &firestorev1.CommitRequest{Writes: writes}).Context(ctx).Do()
}

func isStatus(err error, code int) bool {
	var gErr *googleapi.Error
	return errors.As(err, &gErr) && gErr.Code == code
}

func isNotFound(err error) bool {
	return isStatus(err, http.StatusNotFound)
}

func isConflict(err error) bool {
	return isStatus(err, http.StatusConflict)
}
