package graph

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yungbote/mdb-curator/internal/platform/logger"
	"github.com/yungbote/mdb-curator/internal/platform/neo4jdb"
)

func TestNeo4jStoreContract(t *testing.T) {
	if strings.TrimSpace(os.Getenv("NEO4J_INTEGRATION")) != "1" {
		t.Skip("set NEO4J_INTEGRATION=1 (and NEO4J_URI/NEO4J_PASSWORD) to run Neo4j integration tests")
	}
	ctx := context.Background()
	log := logger.NewNop()

	client, err := neo4jdb.New(log, neo4jdb.ConfigFromEnv(neo4jdb.Config{}))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close(context.Background()) })

	store, err := NewNeo4jStore(ctx, client, log)
	require.NoError(t, err)
	wipe := func() {
		_ = store.Write(ctx, func(ctx context.Context, tx Tx) error {
			for _, n := range []Node{term("tumor", "NCIt"), term("neoplasm", "NCIt"), concept("cnTrA1"), predicate("prTrA1", "")} {
				if err := tx.DetachDelete(ctx, n); err != nil {
					return err
				}
			}
			return nil
		})
	}
	wipe()
	t.Cleanup(wipe)

	runStoreContract(t, store)
}
