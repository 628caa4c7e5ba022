package services

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

const testNS = "devconnector.test"

func newMockT(t *testing.T) *mtest.T {
	return mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
}

// toDoc round-trips v through BSON so mock server replies look like real documents.
func toDoc(t *testing.T, v any) bson.D {
	t.Helper()
	raw, err := bson.Marshal(v)
	require.NoError(t, err)
	var d bson.D
	require.NoError(t, bson.Unmarshal(raw, &d))
	return d
}

func findReply(docs ...bson.D) bson.D {
	return mtest.CreateCursorResponse(0, testNS, mtest.FirstBatch, docs...)
}

func findAndModifyReply(doc any) bson.D {
	return mtest.CreateSuccessResponse(bson.E{Key: "value", Value: doc})
}
