package database

import (
	"VeggieMate/config/environment"
	"context"
	"encoding/base64"
	"log"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go"
	"google.golang.org/api/option"
)

var FirebaseApp *firebase.App
var FirestoreClient *firestore.Client

// InitFirebase initializes the Firebase app and the Firestore client used by
// the saved-reports store. Credentials arrive base64-encoded in the
// environment so they survive deploys that cannot mount files.
func InitFirebase() {
	encodedCredentials := environment.GetFirebaseKey()
	if encodedCredentials == "" {
		log.Fatal("FIREBASE_CREDENTIALS_BASE64 environment variable is missing")
	}

	decodedCredentials, err := base64.StdEncoding.DecodeString(encodedCredentials)
	if err != nil {
		log.Fatalf("Failed to decode Firebase credentials: %v", err)
	}

	projectID := environment.GetFirebaseProjectID()
	if projectID == "" {
		log.Fatal("FIREBASE_PROJECT_ID environment variable is missing")
	}

	ctx := context.Background()
	opt := option.WithCredentialsJSON(decodedCredentials)

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, opt)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase: %v", err)
	}
	FirebaseApp = app

	FirestoreClient, err = app.Firestore(ctx)
	if err != nil {
		log.Fatalf("Failed to create Firestore client: %v", err)
	}
	log.Println("Firebase Firestore initialized successfully")
}

// GetFirestoreClient returns the Firestore client instance
func GetFirestoreClient() *firestore.Client {
	return FirestoreClient
}
