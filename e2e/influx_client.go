package e2e

import (
	"context"
	"net/http"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
)

// influxReader wraps the official InfluxDB v2 client with the query plumbing
// the suite needs to assert on written pipeline metrics.
type influxReader struct {
	client influxdb2.Client
	query  api.QueryAPI
}

func newInfluxReader(url, org, token string) *influxReader {
	c := influxdb2.NewClientWithOptions(url, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 10 * time.Second}))
	return &influxReader{client: c, query: c.QueryAPI(org)}
}

// countRows runs a Flux query and returns the number of rows it yields.
func (r *influxReader) countRows(ctx context.Context, flux string) (int, error) {
	res, err := r.query.Query(ctx, flux)
	if err != nil {
		return 0, err
	}
	defer res.Close()
	n := 0
	for res.Next() {
		n++
	}
	return n, res.Err()
}

func (r *influxReader) close() { r.client.Close() }
