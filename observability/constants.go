package observability

// Metric name prefixes
const (
	MetricPrefix = "speedbet"
)

// Metric names
const (
	// Chain service metrics
	GraphQLRequestsTotal    = MetricPrefix + ".graphql.requests_total"
	GraphQLRequestDuration  = MetricPrefix + ".graphql.request_duration"
	TransportSelectionTotal = MetricPrefix + ".transport.selections_total"

	// Notification metrics
	PollCyclesTotal            = MetricPrefix + ".notifier.poll_cycles_total"
	NotificationsReceivedTotal = MetricPrefix + ".notifier.notifications_received_total"

	// Session metrics
	SessionTransitionsTotal = MetricPrefix + ".session.transitions_total"

	// Toast metrics
	ToastsShownTotal = MetricPrefix + ".toasts.shown_total"
)

// Label keys
const (
	LabelType    = "type"
	LabelKind    = "kind"
	LabelMode    = "mode"
	LabelOutcome = "outcome"
	LabelSource  = "source"
	LabelPhase   = "phase"
)

// Request kinds
const (
	KindQuery    = "query"
	KindMutation = "mutation"
)

// Outcomes
const (
	OutcomeSuccess        = "success"
	OutcomeConnection     = "connection_error"
	OutcomeTransportError = "transport_error"
	OutcomeGraphQLError   = "graphql_error"
	OutcomeError          = "error"
)

// Notification sources
const (
	SourcePoll      = "poll"
	SourceWebSocket = "websocket"
	SourceNATS      = "nats"
)
