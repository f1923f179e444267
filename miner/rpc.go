package miner

import (
	j "encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/AGPFMiner/gapminer/mining"
	"github.com/AGPFMiner/gapminer/types"

	"github.com/gorilla/mux"
	"github.com/gorilla/rpc"
	"github.com/gorilla/rpc/json"
	"go.uber.org/zap"
)

// Service exposes the miner as the "panel" JSON-RPC service.
type Service struct {
	m *Miner
}

type PanelRPCArgs struct {
	Who string
}

type StateReply struct {
	State types.MiningState
}

type StatsReply struct {
	Stats *types.StatsSnapshot
}

type ChartsReply struct {
	Charts *types.Charts
}

type ThreadsArgs struct {
	Threads int
}

type SieveArgs struct {
	Params types.SieveParams
}

func (s *Service) GetState(r *http.Request, args *PanelRPCArgs, reply *StateReply) error {
	reply.State = s.m.State()
	return nil
}

func (s *Service) GetStats(r *http.Request, args *PanelRPCArgs, reply *StatsReply) error {
	if snap, ok := s.m.Stats(); ok {
		reply.Stats = &snap
	}
	return nil
}

func (s *Service) GetCharts(r *http.Request, args *PanelRPCArgs, reply *ChartsReply) error {
	if charts, ok := s.m.Charts(); ok {
		reply.Charts = &charts
	}
	return nil
}

func (s *Service) Start(r *http.Request, args *PanelRPCArgs, reply *StateReply) error {
	err := s.m.Start(r.Context())
	reply.State = s.m.State()
	return err
}

func (s *Service) Stop(r *http.Request, args *PanelRPCArgs, reply *StateReply) error {
	err := s.m.Stop(r.Context())
	reply.State = s.m.State()
	return err
}

func (s *Service) Toggle(r *http.Request, args *PanelRPCArgs, reply *StateReply) error {
	err := s.m.Toggle(r.Context())
	reply.State = s.m.State()
	return err
}

func (s *Service) SetThreads(r *http.Request, args *ThreadsArgs, reply *StateReply) error {
	err := s.m.SetThreads(r.Context(), args.Threads)
	reply.State = s.m.State()
	return err
}

func (s *Service) SetSieve(r *http.Request, args *SieveArgs, reply *StateReply) error {
	err := s.m.SetSieve(r.Context(), args.Params)
	reply.State = s.m.State()
	return err
}

// NewRouter wires the JSON-RPC service and the plain HTTP status and control
// endpoints.
func NewRouter(m *Miner) *mux.Router {
	s := rpc.NewServer()
	s.RegisterCodec(json.NewCodec(), "application/json")
	s.RegisterCodec(json.NewCodec(), "application/json;charset=UTF-8")
	s.RegisterService(&Service{m: m}, "panel")

	r := mux.NewRouter()
	r.Handle("/rpc", s)
	r.HandleFunc("/gapminer/status", m.GetStatus).Methods(http.MethodGet)
	r.HandleFunc("/gapminer/control", m.MinerCtrl).Methods(http.MethodGet, http.MethodPost)
	return r
}

func (m *Miner) GetStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, m.Status())
}

func (m *Miner) MinerCtrl(w http.ResponseWriter, r *http.Request) {
	cmd := r.URL.Query().Get("command")
	if cmd == "" {
		http.Error(w, "url param 'command' is missing", http.StatusBadRequest)
		return
	}

	var err error
	switch cmd {
	case "start":
		err = m.Start(r.Context())
	case "stop":
		err = m.Stop(r.Context())
	case "toggle":
		err = m.Toggle(r.Context())
	case "threads":
		n, perr := strconv.Atoi(r.URL.Query().Get("threads"))
		if perr != nil || n < 0 {
			http.Error(w, "url param 'threads' must be a non-negative integer", http.StatusBadRequest)
			return
		}
		err = m.SetThreads(r.Context(), n)
	default:
		http.Error(w, "unknown command "+strconv.Quote(cmd), http.StatusBadRequest)
		return
	}
	if err != nil {
		m.logger.Info("control command failed", zap.String("command", cmd), zap.Error(err))
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, mining.ErrUnlockDeclined):
			status = http.StatusForbidden
		case errors.Is(err, types.ErrInvalidSieveParams):
			status = http.StatusBadRequest
		}
		http.Error(w, err.Error(), status)
		return
	}
	writeJSON(w, http.StatusOK, m.Status())
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	j.NewEncoder(w).Encode(v)
}
