package manager

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dcm2610/StellarStack-sub000/allocation"
	"github.com/dcm2610/StellarStack-sub000/daemon"
	"github.com/dcm2610/StellarStack-sub000/node"
	"github.com/dcm2610/StellarStack-sub000/orchestrator"
	"github.com/dcm2610/StellarStack-sub000/server"
	"github.com/dcm2610/StellarStack-sub000/stats"
	"github.com/dcm2610/StellarStack-sub000/transfer"
)

type errorResponse struct {
	Error string `json:"error"`
}

type warningResponse struct {
	Warning string      `json:"warning"`
	Result  interface{} `json:"result,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		json.NewEncoder(w).Encode(v)
	}
}

// errStatus maps the orchestrator's error taxonomy onto response
// codes.
func errStatus(err error) int {
	var ve *orchestrator.ValidationError
	var nf *orchestrator.NotFoundError
	var ce *orchestrator.ConflictError
	var capErr *node.CapacityError
	var ne *allocation.NotEnoughError
	var aa *allocation.AlreadyAssignedError
	var re *daemon.RemoteError
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest
	case errors.As(err, &nf):
		return http.StatusNotFound
	case errors.As(err, &ce), errors.As(err, &capErr), errors.As(err, &ne), errors.As(err, &aa):
		return http.StatusConflict
	case errors.As(err, &re):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respond writes result, or the mapped error. A PartialFailure means
// the primary operation succeeded: the result is returned with a
// warning attached instead of an error status.
func (m *Manager) respond(w http.ResponseWriter, okStatus int, result interface{}, err error) {
	if err == nil {
		writeJSON(w, okStatus, result)
		return
	}
	var pf *orchestrator.PartialFailure
	if errors.As(err, &pf) {
		writeJSON(w, okStatus, warningResponse{Warning: pf.Error(), Result: result})
		return
	}
	writeJSON(w, errStatus(err), errorResponse{Error: err.Error()})
}

func serverID(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "serverID"))
	return id, err == nil
}

func (m *Manager) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (m *Manager) StatsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, stats.GetStats())
}

func (m *Manager) CreateNodeHandler(w http.ResponseWriter, r *http.Request) {
	n := node.Node{}
	if err := json.NewDecoder(r.Body).Decode(&n); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	if n.ID == "" || n.Host == "" || n.Port == 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "id, host and port are required"})
		return
	}
	if err := m.Nodes.Put(n.ID, &n); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, &n)
}

func (m *Manager) ListNodesHandler(w http.ResponseWriter, r *http.Request) {
	nodes, err := m.Nodes.List()
	m.respond(w, http.StatusOK, nodes, err)
}

func (m *Manager) GetNodeHandler(w http.ResponseWriter, r *http.Request) {
	n, err := m.Nodes.Get(chi.URLParam(r, "nodeID"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, n)
}

type createAllocationsRequest struct {
	IP    string `json:"ip"`
	Ports []int  `json:"ports"`
}

func (m *Manager) CreateAllocationsHandler(w http.ResponseWriter, r *http.Request) {
	nodeID := chi.URLParam(r, "nodeID")
	if _, err := m.Nodes.Get(nodeID); err != nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
		return
	}
	req := createAllocationsRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	if req.IP == "" || len(req.Ports) == 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "ip and ports are required"})
		return
	}
	var created []*allocation.Allocation
	for _, port := range req.Ports {
		a := allocation.New(nodeID, req.IP, port)
		if err := m.Allocations.Put(a.ID.String(), a); err != nil {
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
			return
		}
		created = append(created, a)
	}
	writeJSON(w, http.StatusCreated, created)
}

func (m *Manager) ListAllocationsHandler(w http.ResponseWriter, r *http.Request) {
	nodeID := chi.URLParam(r, "nodeID")
	v, err := m.Allocations.List()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	var out []*allocation.Allocation
	for _, a := range v.([]*allocation.Allocation) {
		if a.NodeID == nodeID {
			out = append(out, a)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (m *Manager) CreateBlueprintHandler(w http.ResponseWriter, r *http.Request) {
	bp := server.Blueprint{}
	if err := json.NewDecoder(r.Body).Decode(&bp); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	if bp.ID == "" || bp.Image == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "id and image are required"})
		return
	}
	if err := m.Blueprints.Put(bp.ID, &bp); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, &bp)
}

func (m *Manager) ListBlueprintsHandler(w http.ResponseWriter, r *http.Request) {
	blueprints, err := m.Blueprints.List()
	m.respond(w, http.StatusOK, blueprints, err)
}

func (m *Manager) ProvisionHandler(w http.ResponseWriter, r *http.Request) {
	req := orchestrator.ProvisionRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	s, err := m.Orchestrator.Provision(r.Context(), req)
	m.respond(w, http.StatusCreated, s, err)
}

func (m *Manager) ListServersHandler(w http.ResponseWriter, r *http.Request) {
	servers, err := m.Servers.List()
	m.respond(w, http.StatusOK, servers, err)
}

func (m *Manager) GetServerHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := serverID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed server id"})
		return
	}
	s, err := m.Servers.Get(id.String())
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (m *Manager) DeleteServerHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := serverID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed server id"})
		return
	}
	force := r.URL.Query().Get("force") == "true"
	err := m.Orchestrator.Delete(r.Context(), id, force)
	m.respond(w, http.StatusNoContent, nil, err)
}

type powerRequest struct {
	Action string `json:"action"`
}

func (m *Manager) PowerHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := serverID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed server id"})
		return
	}
	req := powerRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	err := m.Orchestrator.Power(r.Context(), id, req.Action)
	m.respond(w, http.StatusAccepted, nil, err)
}

type setStatusRequest struct {
	Status string `json:"status"`
}

func (m *Manager) SetStatusHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := serverID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed server id"})
		return
	}
	req := setStatusRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	status, ok := server.ParseStatus(req.Status)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "unknown status " + req.Status})
		return
	}
	err := m.Orchestrator.SetStatus(r.Context(), id, status)
	m.respond(w, http.StatusNoContent, nil, err)
}

func (m *Manager) SplitHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := serverID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed server id"})
		return
	}
	req := orchestrator.SplitRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	req.ServerID = id
	child, err := m.Orchestrator.Split(r.Context(), req)
	m.respond(w, http.StatusCreated, child, err)
}

func (m *Manager) ReinstallHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := serverID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed server id"})
		return
	}
	err := m.Orchestrator.Reinstall(r.Context(), id)
	m.respond(w, http.StatusAccepted, nil, err)
}

type startTransferRequest struct {
	TargetNodeID string `json:"target_node_id"`
}

func (m *Manager) StartTransferHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := serverID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed server id"})
		return
	}
	req := startTransferRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	t, err := m.Orchestrator.StartTransfer(r.Context(), id, req.TargetNodeID)
	m.respond(w, http.StatusAccepted, t, err)
}

func (m *Manager) ActiveTransferHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := serverID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed server id"})
		return
	}
	t, err := m.Orchestrator.ActiveTransfer(id)
	if err == nil && t == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "no active transfer"})
		return
	}
	m.respond(w, http.StatusOK, t, err)
}

func (m *Manager) CancelTransferHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := serverID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed server id"})
		return
	}
	t, err := m.Orchestrator.CancelTransfer(r.Context(), id)
	m.respond(w, http.StatusOK, t, err)
}

func (m *Manager) TransferHistoryHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := serverID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed server id"})
		return
	}
	history, err := m.Orchestrator.TransferHistory(id)
	m.respond(w, http.StatusOK, history, err)
}

type serverAllocationRequest struct {
	AllocationID uuid.UUID `json:"allocation_id"`
}

func (m *Manager) AddAllocationHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := serverID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed server id"})
		return
	}
	req := serverAllocationRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	err := m.Orchestrator.AddAllocation(id, req.AllocationID)
	m.respond(w, http.StatusNoContent, nil, err)
}

func (m *Manager) RemoveAllocationHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := serverID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed server id"})
		return
	}
	allocID, err := uuid.Parse(chi.URLParam(r, "allocationID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed allocation id"})
		return
	}
	m.respond(w, http.StatusNoContent, nil, m.Orchestrator.RemoveAllocation(id, allocID))
}

func (m *Manager) SetPrimaryHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := serverID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed server id"})
		return
	}
	allocID, err := uuid.Parse(chi.URLParam(r, "allocationID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed allocation id"})
		return
	}
	m.respond(w, http.StatusNoContent, nil, m.Orchestrator.SetPrimaryAllocation(id, allocID))
}

type installCallbackRequest struct {
	Successful bool `json:"successful"`
}

func (m *Manager) InstallCallbackHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := serverID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed server id"})
		return
	}
	req := installCallbackRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	m.respond(w, http.StatusNoContent, nil, m.Orchestrator.MarkInstalled(id, req.Successful))
}

type transferCallbackRequest struct {
	Status   string `json:"status"`
	Progress int    `json:"progress"`
	Error    string `json:"error"`
}

func (m *Manager) TransferCallbackHandler(w http.ResponseWriter, r *http.Request) {
	transferID, err := uuid.Parse(chi.URLParam(r, "transferID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed transfer id"})
		return
	}
	req := transferCallbackRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	var status transfer.Status
	switch req.Status {
	case "ARCHIVING":
		status = transfer.Archiving
	case "RESTORING":
		status = transfer.Restoring
	case "COMPLETED":
		status = transfer.Completed
	case "FAILED":
		status = transfer.Failed
	default:
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "unknown transfer status " + req.Status})
		return
	}
	t, err := m.Orchestrator.UpdateTransfer(transferID, status, req.Progress, req.Error)
	m.respond(w, http.StatusOK, t, err)
}
