package protocol

// HELLO (client -> server)
type HelloMsg struct {
	Type            string            `json:"type"`
	ProtocolVersion string            `json:"protocol_version"`
	ClientName      string            `json:"client_name"`
	Capabilities    HelloCapabilities `json:"capabilities,omitempty"`
}

type HelloCapabilities struct {
	MaxQueue int `json:"max_queue,omitempty"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string   `json:"type"`
	ProtocolVersion string   `json:"protocol_version"`
	SessionID       string   `json:"session_id"`
	TickRateHz      int      `json:"tick_rate_hz"`
	RootTiles       []string `json:"root_tiles"`
	TuningDigest    string   `json:"tuning_digest,omitempty"`
}

// VIEW (client -> server): the sampled viewer orientation.
type ViewMsg struct {
	Type            string  `json:"type"`
	ProtocolVersion string  `json:"protocol_version"`
	YawDeg          float64 `json:"yaw_deg"`
	PitchDeg        float64 `json:"pitch_deg"`
	FovDeg          float64 `json:"fov_deg"`
	WantStats       bool    `json:"want_stats,omitempty"`
}

// SCENE (server -> client): pushed when the merged scene revision changes.
type SceneMsg struct {
	Type          string                   `json:"type"`
	Revision      uint64                   `json:"revision"`
	Frame         uint64                   `json:"frame"`
	Transitioning bool                     `json:"transitioning"`
	Nodes         []SceneNode              `json:"nodes"`
	Links         []SceneLink              `json:"links,omitempty"`
	Arrangement   map[string]ScenePosition `json:"arrangement,omitempty"`
}

type SceneNode struct {
	ID    string  `json:"id"`
	Label string  `json:"label,omitempty"`
	Kind  string  `json:"kind,omitempty"`
	Blend float64 `json:"blend"`
}

type SceneLink struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

type ScenePosition struct {
	YawDeg   float64 `json:"yaw_deg"`
	PitchDeg float64 `json:"pitch_deg"`
}

// STATS (server -> client), sent when a VIEW asked for it.
type StatsMsg struct {
	Type          string `json:"type"`
	Frame         uint64 `json:"frame"`
	Desired       int    `json:"desired"`
	Resolved      int    `json:"resolved"`
	Active        int    `json:"active"`
	Loaded        int    `json:"loaded"`
	InFlight      int    `json:"in_flight"`
	Queued        int    `json:"queued"`
	Transitioning bool   `json:"transitioning"`
}

// ERROR (server -> client)
type ErrorMsg struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
}
