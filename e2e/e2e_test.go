package e2e

import (
	"context"
	"encoding/xml"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/ctessum/geom"
	paho "github.com/eclipse/paho.mqtt.golang"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/gridscope/gridscope/core/events"
	"github.com/gridscope/gridscope/core/geo"
	"github.com/gridscope/gridscope/core/model"
	"github.com/gridscope/gridscope/core/partition"
	"github.com/gridscope/gridscope/core/solar"
	"github.com/gridscope/gridscope/infra/geomops"
	"github.com/gridscope/gridscope/infra/logger"
	inframetrics "github.com/gridscope/gridscope/infra/metrics"
	"github.com/gridscope/gridscope/infra/telemetry"
	"github.com/gridscope/gridscope/internal/eventbus"
)

const (
	influxOrg    = "e2e_org"
	influxBucket = "e2e_bucket"
	influxToken  = "e2e-token"

	workProj = "+proj=merc +a=6378137 +b=6378137 +lat_ts=0.0 +lon_0=0.0 +x_0=0.0 +y_0=0 +k=1.0 +units=m +nadgrids=@null +no_defs"
)

// junitReport is a minimal representation of a JUnit XML report. The E2E
// suite writes such a report so CI systems can display the results.
type junitReport struct {
	XMLName  xml.Name        `xml:"testsuite"`
	Name     string          `xml:"name,attr"`
	Tests    int             `xml:"tests,attr"`
	Failures int             `xml:"failures,attr"`
	Cases    []junitTestCase `xml:"testcase"`
}

type junitTestCase struct {
	Name    string  `xml:"name,attr"`
	Failure *string `xml:"failure,omitempty"`
	Time    float64 `xml:"time,attr"`
}

func writeJUnit(path string, rep junitReport) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := xml.NewEncoder(f)
	enc.Indent("", "  ")
	return enc.Encode(rep)
}

// startInflux starts an initialized InfluxDB 2.7 container and returns it
// along with the base URL.
func startInflux(ctx context.Context, t *testing.T) (tc.Container, string) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "influxdb:2.7",
		ExposedPorts: []string{"8086/tcp"},
		Env: map[string]string{
			"DOCKER_INFLUXDB_INIT_MODE":        "setup",
			"DOCKER_INFLUXDB_INIT_USERNAME":    "e2e",
			"DOCKER_INFLUXDB_INIT_PASSWORD":    "e2e-password",
			"DOCKER_INFLUXDB_INIT_ORG":         influxOrg,
			"DOCKER_INFLUXDB_INIT_BUCKET":      influxBucket,
			"DOCKER_INFLUXDB_INIT_ADMIN_TOKEN": influxToken,
		},
		WaitingFor: wait.ForHTTP("/health").WithPort("8086/tcp").WithStartupTimeout(60 * time.Second),
	}
	cont, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	if err != nil {
		t.Skipf("unable to start influx container: %v", err)
	}
	host, _ := cont.Host(ctx)
	port, _ := cont.MappedPort(ctx, "8086")
	return cont, fmt.Sprintf("http://%s:%s", host, port.Port())
}

// startMosquitto spins up a basic Mosquitto broker for tests.
func startMosquitto(ctx context.Context, t *testing.T) (tc.Container, string) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "eclipse-mosquitto:2.0",
		ExposedPorts: []string{"1883/tcp"},
		Cmd:          []string{"mosquitto", "-c", "/mosquitto-no-auth.conf"},
		WaitingFor:   wait.ForListeningPort("1883/tcp"),
	}
	cont, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	if err != nil {
		t.Skipf("unable to start mosquitto: %v", err)
	}
	host, _ := cont.Host(ctx)
	port, _ := cont.MappedPort(ctx, "1883")
	return cont, fmt.Sprintf("tcp://%s:%s", host, port.Port())
}

// runPipeline partitions a two-substation district and simulates three days
// of generation for each territory.
func runPipeline(ctx context.Context, t *testing.T) []model.GenerationEstimate {
	t.Helper()
	norm, err := geo.NewNormalizer("+proj=longlat", workProj)
	if err != nil {
		t.Fatalf("normalizer: %v", err)
	}
	subs := []model.Substation{
		{ID: "SE01", Name: "Oeste", Lon: -51.25, Lat: -30.0, CapacityMVA: 20},
		{ID: "SE02", Name: "Leste", Lon: -51.15, Lat: -30.0, CapacityMVA: 15},
	}
	boundary := model.Boundary{
		Name: "distrito",
		Geometry: geom.Polygon{{
			{X: -51.3, Y: -30.1}, {X: -51.1, Y: -30.1}, {X: -51.1, Y: -29.9}, {X: -51.3, Y: -29.9},
		}},
	}
	scene, err := geo.NewScene(subs, boundary, norm)
	if err != nil {
		t.Fatalf("scene: %v", err)
	}
	engine, err := partition.New(geomops.New(), partition.Config{}, logger.NopLogger{})
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	res, err := engine.Partition(ctx, scene.Sites, scene.Boundary)
	if err != nil {
		t.Fatalf("partition: %v", err)
	}
	if len(res.Anomalies) != 0 {
		t.Fatalf("unexpected anomalies: %v", res.Anomalies)
	}

	sim, err := solar.New(solar.Config{Panel: solar.PanelModel{
		PerformanceRatio: 0.8,
		TempCoefficient:  0.004,
		ReferenceTempC:   25,
		CloudAttenuation: 0.3,
	}}, logger.NopLogger{})
	if err != nil {
		t.Fatalf("simulator: %v", err)
	}

	day := time.Now().UTC().Truncate(24 * time.Hour)
	installed := map[string]float64{"SE01": 40, "SE02": 25}
	units := make([]solar.Unit, 0, len(res.Territories))
	for _, terr := range res.Territories {
		units = append(units, solar.Unit{
			TerritoryID: terr.SubstationID,
			InstalledKW: installed[terr.SubstationID],
			Series: model.WeatherSeries{
				TerritoryID: terr.SubstationID,
				Kind:        model.WindowHistorical,
				Samples: []model.WeatherSample{
					{Time: day.AddDate(0, 0, -2), IrradianceKWhM2: 5.1, TemperatureC: 24, CloudCoverPct: 20},
					{Time: day.AddDate(0, 0, -1), IrradianceKWhM2: 4.4, TemperatureC: 26, CloudCoverPct: 35},
					{Time: day, IrradianceKWhM2: 5.8, TemperatureC: 22, CloudCoverPct: 5},
				},
			},
		})
	}
	batch := sim.SimulateBatch(ctx, units)
	if len(batch.Errors) != 0 {
		t.Fatalf("simulation errors: %v", batch.Errors)
	}
	if want := len(units) * 3; len(batch.Estimates) != want {
		t.Fatalf("expected %d estimates, got %d", want, len(batch.Estimates))
	}
	return batch.Estimates
}

// Test_E2E_PipelineObservability runs the partition and simulation pipeline
// against real InfluxDB and Mosquitto instances: estimates flow through the
// event collector into Influx and through the MQTT publisher onto the broker.
func Test_E2E_PipelineObservability(t *testing.T) {
	if _, err := exec.LookPath("docker"); err != nil {
		t.Skipf("docker not installed: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	influxCont, influxURL := startInflux(ctx, t)
	if influxCont != nil {
		defer influxCont.Terminate(ctx) //nolint:errcheck
	}
	mqttCont, mqttURL := startMosquitto(ctx, t)
	if mqttCont != nil {
		defer mqttCont.Terminate(ctx) //nolint:errcheck
	}
	t.Logf("InfluxDB at %s, Mosquitto at %s", influxURL, mqttURL)

	estimates := runPipeline(ctx, t)

	// Influx round trip through the real event collector.
	sink := inframetrics.NewInfluxSink(influxURL, influxToken, influxOrg, influxBucket)
	bus := eventbus.New()
	defer bus.Close()
	inframetrics.StartEventCollector(ctx, bus, sink)
	for _, est := range estimates {
		bus.Publish(events.EstimateProduced{Estimate: est})
	}

	reader := newInfluxReader(influxURL, influxOrg, influxToken)
	defer reader.close()
	flux := fmt.Sprintf(
		`from(bucket:"%s") |> range(start:-7d) |> filter(fn: (r) => r._measurement == "generation_estimate" and r._field == "energy_kwh")`,
		influxBucket)
	rows := 0
	deadline := time.Now().Add(30 * time.Second)
	for time.Now().Before(deadline) {
		n, err := reader.countRows(ctx, flux)
		if err == nil {
			rows = n
			if rows >= len(estimates) {
				break
			}
		}
		time.Sleep(time.Second)
	}
	if rows < len(estimates) {
		t.Fatalf("influx: expected %d generation rows, got %d", len(estimates), rows)
	}
	t.Logf("influx returned %d generation rows", rows)

	// MQTT round trip: a raw subscriber must see every published estimate.
	received := make(chan string, len(estimates))
	subCli := paho.NewClient(paho.NewClientOptions().AddBroker(mqttURL).SetClientID("e2e-sub"))
	if token := subCli.Connect(); token.Wait() && token.Error() != nil {
		t.Fatalf("subscriber connect: %v", token.Error())
	}
	defer subCli.Disconnect(250)
	if token := subCli.Subscribe("gridscope/#", 1, func(_ paho.Client, m paho.Message) {
		received <- m.Topic()
	}); token.Wait() && token.Error() != nil {
		t.Fatalf("subscribe: %v", token.Error())
	}

	pubCfg := telemetry.Config{Enabled: true, Broker: mqttURL, ClientID: "e2e-pub"}
	pubCfg.SetDefaults()
	pub, err := telemetry.NewPahoPublisher(pubCfg)
	if err != nil {
		t.Fatalf("publisher: %v", err)
	}
	defer pub.Close()
	for _, est := range estimates {
		if err := pub.PublishEstimate(est); err != nil {
			t.Fatalf("publish estimate: %v", err)
		}
	}
	got := 0
	timeout := time.After(20 * time.Second)
	for got < len(estimates) {
		select {
		case topic := <-received:
			if topic == "" {
				t.Fatalf("empty topic received")
			}
			got++
		case <-timeout:
			t.Fatalf("mqtt: received %d of %d messages", got, len(estimates))
		}
	}
	t.Logf("mqtt delivered %d estimate messages", got)

	rep := junitReport{Name: "e2e", Tests: 1, Cases: []junitTestCase{{Name: t.Name(), Time: 0}}}
	if err := writeJUnit(filepath.Join(t.TempDir(), "e2e.xml"), rep); err != nil {
		t.Logf("write junit: %v", err)
	}
}
