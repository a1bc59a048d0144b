package httpapi

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/synchub/backend/internal/server/models"
)

type deviceResponse struct {
	Name      string `json:"name"`
	Type      string `json:"type"`
	Status    string `json:"status"`
	LastSeen  string `json:"last_seen"`
	IsMain    bool   `json:"is_main_device"`
	UserName  string `json:"user_name"`
	IPAddress string `json:"ip_address"`
}

func toDeviceResponse(d models.DeviceStatus) deviceResponse {
	userName := d.UserEmail
	if idx := strings.Index(userName, "@"); idx > 0 {
		userName = userName[:idx]
	}
	return deviceResponse{
		Name:      d.Name,
		Type:      d.Type,
		Status:    d.Status,
		LastSeen:  d.LastSeen.UTC().Format(time.RFC3339),
		IsMain:    d.IsMain,
		UserName:  userName,
		IPAddress: d.Address,
	}
}

func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	snapshot := s.presence.Snapshot()
	result := make([]deviceResponse, 0, len(snapshot))
	for _, d := range snapshot {
		result = append(result, toDeviceResponse(d))
	}
	writeJSON(w, http.StatusOK, result)
}

type registerDeviceRequest struct {
	DeviceName string `json:"device_name"`
	DeviceType string `json:"device_type"`
	Email      string `json:"email"`
}

func (s *Server) handleRegisterDevice(w http.ResponseWriter, r *http.Request) {
	req := registerDeviceRequest{DeviceName: "New Device", DeviceType: "laptop"}
	_ = json.NewDecoder(r.Body).Decode(&req)

	s.presence.RecordActivity(req.DeviceName, req.DeviceType, remoteAddr(r), req.Email)

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "device registered",
		"device": map[string]string{
			"name":   req.DeviceName,
			"type":   req.DeviceType,
			"status": models.DeviceStatusActive,
		},
	})
}

func (s *Server) handleHeartbeat(w http.ResponseWriter, r *http.Request) {
	deviceName, deviceType := deviceFromUserAgent(r.UserAgent())
	s.presence.RecordActivity(deviceName, deviceType, remoteAddr(r), "")

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "heartbeat received",
		"device":  deviceName,
	})
}

// deviceFromUserAgent infers a device identity for anonymous heartbeats.
func deviceFromUserAgent(ua string) (name, deviceType string) {
	lower := strings.ToLower(ua)
	for _, marker := range []string{"mobile", "android", "iphone", "ipad"} {
		if strings.Contains(lower, marker) {
			return "Phone Device", "phone"
		}
	}
	return "Laptop Device", "laptop"
}

func remoteAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
