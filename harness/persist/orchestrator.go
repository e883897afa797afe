package persist

import (
	"errors"
	"github.com/ValentinKolb/kvprobe/harness/keys"
	"github.com/ValentinKolb/kvprobe/harness/proc"
	"github.com/ValentinKolb/kvprobe/wire/proto"
	"github.com/google/uuid"
	"github.com/lni/dragonboat/v4/logger"
	"io/fs"
	"math/rand"
	"os"
	"time"
)

var Logger = logger.GetLogger("persist")

const (
	// deleteFraction of the seeded keys is removed before the restart
	deleteFraction = 0.2

	// relaunchDelay is the fixed wait between confirmed termination and
	// the respawn of the server process.
	relaunchDelay = time.Second
)

// --------------------------------------------------------------------------
// Collaborator interfaces
// --------------------------------------------------------------------------

// ServerProcess is the process-control surface the orchestrator needs from
// a spawned server instance.
type ServerProcess interface {
	Terminate() error
	Output() string
}

// ServerLauncher spawns server instances
type ServerLauncher interface {
	Spawn(port int) (ServerProcess, error)
}

// Client is the data-control surface the orchestrator needs from a
// protocol client. One fresh client is created per server incarnation.
type Client interface {
	Connect() error
	Disconnect()
	Write(key, value string) (string, error)
	Read(key string) (string, error)
	Delete(key string) (string, error)
}

// managerLauncher adapts proc.Manager to the ServerLauncher interface
type managerLauncher struct {
	m *proc.Manager
}

func (l managerLauncher) Spawn(port int) (ServerProcess, error) {
	return l.m.Spawn(port)
}

// NewLauncher wraps a process manager as a ServerLauncher
func NewLauncher(m *proc.Manager) ServerLauncher {
	return managerLauncher{m: m}
}

// --------------------------------------------------------------------------
// Phases
// --------------------------------------------------------------------------

type phase string

const (
	phaseInit              phase = "init"
	phaseSeeding           phase = "seeding"
	phaseMutating          phase = "mutating"
	phasePreShutdownSettle phase = "pre-shutdown-settle"
	phaseTerminating       phase = "terminating"
	phaseRelaunching       phase = "relaunching"
	phasePostLaunchSettle  phase = "post-launch-settle"
	phaseVerifying         phase = "verifying"
	phaseDone              phase = "done"
)

// --------------------------------------------------------------------------
// Orchestrator
// --------------------------------------------------------------------------

// Config holds all parameters of a durability run
type Config struct {
	// Port the server instances listen on
	Port int

	// Records is the number of keys to seed
	Records int

	// WaitBeforeKill is the settle delay before the server is shut down,
	// simulating in-flight work.
	WaitBeforeKill time.Duration

	// WaitBeforeLaunch is the settle delay after every spawn before the
	// first connection attempt (the server signals no readiness).
	WaitBeforeLaunch time.Duration

	// StateFile is the server's on-disk state file, removed during Init so
	// the run starts from a clean slate ("" = skip cleanup).
	StateFile string

	// Prefix is the key namespace of the run
	Prefix string

	// Seed makes the random deletion reproducible (0 = time based)
	Seed int64
}

// Orchestrator sequences process control and data control through the
// durability pipeline. It never touches the server's state file outside the
// Init cleanup; all data access goes through the protocol.
type Orchestrator struct {
	cfg       Config
	launcher  ServerLauncher
	newClient func() Client
}

// New creates an orchestrator. newClient is called once per server
// incarnation so each phase pair talks over a fresh connection.
func New(cfg Config, launcher ServerLauncher, newClient func() Client) *Orchestrator {
	if cfg.Prefix == "" {
		cfg.Prefix = "persist"
	}
	return &Orchestrator{cfg: cfg, launcher: launcher, newClient: newClient}
}

// Run executes the full pipeline:
//
//	Init -> Seeding -> Mutating -> PreShutdownSettle -> Terminating ->
//	Relaunching -> PostLaunchSettle -> Verifying -> Done
//
// A fatal process or connection error aborts the run and is returned; the
// partially filled Result is still usable for reporting. Per-record
// failures never abort, they are counted.
func (o *Orchestrator) Run() (*Result, error) {
	result := &Result{RunID: uuid.NewString(), Records: o.cfg.Records}
	start := time.Now()
	defer func() { result.Elapsed = time.Since(start) }()

	// --- Init: clean slate ---
	o.enter(phaseInit)
	o.removeStateFile()

	// --- Seeding ---
	o.enter(phaseSeeding)
	server, err := o.launcher.Spawn(o.cfg.Port)
	if err != nil {
		return result, err
	}
	o.settle(o.cfg.WaitBeforeLaunch)

	cl := o.newClient()
	if err := cl.Connect(); err != nil {
		_ = server.Terminate()
		return result, err
	}

	oracle, order := o.seed(cl, result)

	// --- Mutating: delete a random fifth of the seeded keys ---
	o.enter(phaseMutating)
	o.mutate(cl, result, oracle, order)
	result.OracleSize = len(oracle)

	// --- PreShutdownSettle ---
	o.enter(phasePreShutdownSettle)
	o.settle(o.cfg.WaitBeforeKill)
	cl.Disconnect()

	// --- Terminating ---
	o.enter(phaseTerminating)
	if err := server.Terminate(); err != nil {
		return result, err
	}

	// --- Relaunching ---
	o.enter(phaseRelaunching)
	o.settle(relaunchDelay)
	server2, err := o.launcher.Spawn(o.cfg.Port)
	if err != nil {
		return result, err
	}
	defer func() {
		if err := server2.Terminate(); err != nil {
			Logger.Warningf("relaunched server teardown: %v", err)
		}
	}()

	o.enter(phasePostLaunchSettle)
	o.settle(o.cfg.WaitBeforeLaunch)

	cl2 := o.newClient()
	if err := cl2.Connect(); err != nil {
		return result, err
	}
	defer cl2.Disconnect()

	// --- Verifying ---
	o.enter(phaseVerifying)
	o.verify(cl2, result, oracle)

	// --- Done ---
	o.enter(phaseDone)
	Logger.Infof("run %s: rate %.2f%%, validation errors %d, read errors %d, passed=%t",
		result.RunID, result.PersistenceRate()*100, result.ValidationErrors,
		result.ReadErrors, result.Passed())

	return result, nil
}

// --------------------------------------------------------------------------
// Phase implementations
// --------------------------------------------------------------------------

// removeStateFile deletes any pre-existing on-disk state. A missing file is
// success; any other removal error is a warning, never fatal.
func (o *Orchestrator) removeStateFile() {
	if o.cfg.StateFile == "" {
		return
	}
	if err := os.Remove(o.cfg.StateFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		Logger.Warningf("could not remove state file %s: %v", o.cfg.StateFile, err)
	}
}

// seed writes the full generated key set and builds the oracle mapping.
// The returned order slice fixes a deterministic key order for the random
// selection in the mutation phase.
func (o *Orchestrator) seed(cl Client, result *Result) (map[string]string, []string) {
	oracle := make(map[string]string, o.cfg.Records)
	order := make([]string, 0, o.cfg.Records)

	for i := 0; i < o.cfg.Records; i++ {
		key := keys.Key(o.cfg.Prefix, i)
		value := keys.Value(i)

		resp, err := cl.Write(key, value)
		switch {
		case err != nil:
			result.WriteErrors++
			result.recordError("write "+key, err)
		case proto.IsError(resp):
			result.WriteErrors++
			result.recordError("write "+key, errSentinel)
		default:
			result.Written++
			oracle[key] = value
			order = append(order, key)
		}
	}

	return oracle, order
}

// mutate deletes floor(Records * deleteFraction) distinct keys chosen
// uniformly at random without replacement. Deleted keys leave the oracle
// either way: this run no longer vouches for them.
func (o *Orchestrator) mutate(cl Client, result *Result, oracle map[string]string, order []string) {
	seed := o.cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	count := int(float64(o.cfg.Records) * deleteFraction)
	if count > len(order) {
		count = len(order)
	}

	rng.Shuffle(len(order), func(i, j int) {
		order[i], order[j] = order[j], order[i]
	})

	for _, key := range order[:count] {
		resp, err := cl.Delete(key)
		switch {
		case err != nil:
			result.DeleteErrors++
			result.recordError("delete "+key, err)
		case proto.IsError(resp):
			result.DeleteErrors++
			result.recordError("delete "+key, errSentinel)
		default:
			result.Deleted++
		}
		delete(oracle, key)
	}

	Logger.Infof("deleted %d of %d keys (seed %d)", count, o.cfg.Records, seed)
}

// verify reads every key remaining in the oracle and compares it to the
// pre-restart value. The sentinel or a mismatch is a validation failure; a
// transport failure (after one reconnect retry) is a read error. Deleted
// keys are deliberately not re-checked for absence.
func (o *Orchestrator) verify(cl Client, result *Result, oracle map[string]string) {
	for key, want := range oracle {
		resp, err := cl.Read(key)
		if err != nil {
			cl.Disconnect()
			resp, err = cl.Read(key)
		}

		switch {
		case err != nil:
			result.ReadErrors++
			result.recordError("read "+key, err)
		case proto.IsError(resp):
			result.ValidationErrors++
			result.recordError("read "+key, errLost)
		case resp != want:
			result.ValidationErrors++
			result.recordError("read "+key, errMismatch)
		default:
			result.Verified++
		}
	}
}

// --------------------------------------------------------------------------
// Helpers
// --------------------------------------------------------------------------

var (
	errSentinel = errors.New("server returned the error sentinel")
	errLost     = errors.New("key lost after restart")
	errMismatch = errors.New("value mismatch after restart")
)

func (o *Orchestrator) enter(p phase) {
	Logger.Infof("phase: %s", p)
}

func (o *Orchestrator) settle(d time.Duration) {
	if d > 0 {
		time.Sleep(d)
	}
}
