package store

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mdawahq/mdawa-transfer/internal/auth"
	"github.com/mdawahq/mdawa-transfer/internal/merge"
	"github.com/mdawahq/mdawa-transfer/internal/otp"
	"github.com/mdawahq/mdawa-transfer/internal/patient"
	"github.com/mdawahq/mdawa-transfer/internal/record"
)

// Collection names match the file store's document keys.
const (
	collPatients       = "patients"
	collMedicalRecords = "medicalRecords"
	collPrescriptions  = "prescriptions"
	collAppointments   = "appointments"
	collLabResults     = "labResults"
	collVitals         = "vitals"
	collOTPSessions    = "otpSessions"
	collUsers          = "users"
)

// MongoStore persists the receiver dataset in MongoDB for clinic deployments
// where several workstations share one receiving store.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

func NewMongoStore(client *mongo.Client, database string) *MongoStore {
	return &MongoStore{
		client: client,
		db:     client.Database(database),
	}
}

func (m *MongoStore) LoadDataset(ctx context.Context) (merge.Dataset, error) {
	var ds merge.Dataset
	if err := loadAll(ctx, m.db, collPatients, &ds.Patients); err != nil {
		return ds, err
	}
	if err := loadAll(ctx, m.db, collMedicalRecords, &ds.MedicalRecords); err != nil {
		return ds, err
	}
	if err := loadAll(ctx, m.db, collPrescriptions, &ds.Prescriptions); err != nil {
		return ds, err
	}
	if err := loadAll(ctx, m.db, collAppointments, &ds.Appointments); err != nil {
		return ds, err
	}
	if err := loadAll(ctx, m.db, collLabResults, &ds.LabResults); err != nil {
		return ds, err
	}
	if err := loadAll(ctx, m.db, collVitals, &ds.Vitals); err != nil {
		return ds, err
	}
	return ds, nil
}

func (m *MongoStore) SaveDataset(ctx context.Context, ds merge.Dataset) error {
	if err := saveAll(ctx, m.db, collPatients, ds.Patients, func(p patient.Patient) string { return p.ID }); err != nil {
		return err
	}
	if err := saveAll(ctx, m.db, collMedicalRecords, ds.MedicalRecords, func(r record.MedicalRecord) string { return r.ID }); err != nil {
		return err
	}
	if err := saveAll(ctx, m.db, collPrescriptions, ds.Prescriptions, func(p record.Prescription) string { return p.ID }); err != nil {
		return err
	}
	if err := saveAll(ctx, m.db, collAppointments, ds.Appointments, func(a record.Appointment) string { return a.ID }); err != nil {
		return err
	}
	if err := saveAll(ctx, m.db, collLabResults, ds.LabResults, func(l record.LabResult) string { return l.ID }); err != nil {
		return err
	}
	return saveAll(ctx, m.db, collVitals, ds.Vitals, func(v record.VitalsReading) string { return v.ID })
}

func (m *MongoStore) LoadSessions(ctx context.Context) ([]otp.Session, error) {
	var sessions []otp.Session
	if err := loadAll(ctx, m.db, collOTPSessions, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

func (m *MongoStore) SaveSessions(ctx context.Context, sessions []otp.Session) error {
	return saveAll(ctx, m.db, collOTPSessions, sessions, func(s otp.Session) string { return s.Code })
}

func (m *MongoStore) LoadUsers(ctx context.Context) ([]auth.User, error) {
	var users []auth.User
	if err := loadAll(ctx, m.db, collUsers, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (m *MongoStore) SaveUsers(ctx context.Context, users []auth.User) error {
	return saveAll(ctx, m.db, collUsers, users, func(u auth.User) string { return u.ID })
}

func (m *MongoStore) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

func loadAll[T any](ctx context.Context, db *mongo.Database, name string, out *[]T) error {
	cursor, err := db.Collection(name).Find(ctx, bson.D{})
	if err != nil {
		return fmt.Errorf("query %s: %w", name, err)
	}
	defer cursor.Close(ctx)

	if err := cursor.All(ctx, out); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}

// saveAll upserts every document by id. The merge engine never deletes, so
// documents absent from the slice were never removed by a transfer and can
// stay untouched.
func saveAll[T any](ctx context.Context, db *mongo.Database, name string, docs []T, id func(T) string) error {
	coll := db.Collection(name)
	opts := options.Replace().SetUpsert(true)
	for _, doc := range docs {
		filter := bson.D{{Key: "_id", Value: id(doc)}}
		if _, err := coll.ReplaceOne(ctx, filter, doc, opts); err != nil {
			return fmt.Errorf("upsert into %s: %w", name, err)
		}
	}
	return nil
}
