package docstore

import (
	"context"
	"fmt"
	"log"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"github.com/anjiri1684/mentor_marketplace/domain"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Store is the subset of a document database used by the service.
type Store interface {
	GetDocument(ctx context.Context, collection, id string, dest any) error
	// FindOne decodes the first document whose field equals value and returns its id.
	FindOne(ctx context.Context, collection, field string, value any, dest any) (string, error)
	// MergeDocument writes data into the document, creating it when absent.
	MergeDocument(ctx context.Context, collection, id string, data map[string]any) error
	DeleteDocument(ctx context.Context, collection, id string) error
}

type FirestoreStore struct {
	client *firestore.Client
}

func NewFirestoreStore(ctx context.Context, credentialsFile, projectID string) (*FirestoreStore, error) {
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("init firebase app: %w", err)
	}
	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("init firestore client: %w", err)
	}

	log.Println("✅ Firestore client initialized")
	return &FirestoreStore{client: client}, nil
}

func (s *FirestoreStore) GetDocument(ctx context.Context, collection, id string, dest any) error {
	snap, err := s.client.Collection(collection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return domain.NotFoundError{Resource: collection}
		}
		return &domain.ExternalServiceError{Op: "firestore get", Err: err}
	}
	return snap.DataTo(dest)
}

func (s *FirestoreStore) FindOne(ctx context.Context, collection, field string, value any, dest any) (string, error) {
	iter := s.client.Collection(collection).Where(field, "==", value).Limit(1).Documents(ctx)
	defer iter.Stop()

	snap, err := iter.Next()
	if err == iterator.Done {
		return "", domain.NotFoundError{Resource: collection}
	}
	if err != nil {
		return "", &domain.ExternalServiceError{Op: "firestore query", Err: err}
	}
	if err := snap.DataTo(dest); err != nil {
		return "", err
	}
	return snap.Ref.ID, nil
}

func (s *FirestoreStore) MergeDocument(ctx context.Context, collection, id string, data map[string]any) error {
	if _, err := s.client.Collection(collection).Doc(id).Set(ctx, data, firestore.MergeAll); err != nil {
		return &domain.ExternalServiceError{Op: "firestore set", Err: err}
	}
	return nil
}

func (s *FirestoreStore) DeleteDocument(ctx context.Context, collection, id string) error {
	if _, err := s.client.Collection(collection).Doc(id).Delete(ctx); err != nil {
		return &domain.ExternalServiceError{Op: "firestore delete", Err: err}
	}
	return nil
}

func (s *FirestoreStore) Close() error {
	return s.client.Close()
}
