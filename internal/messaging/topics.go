package messaging

// TopicOrderCreated carries domain.OrderCreatedEvent payloads keyed by order id.
const TopicOrderCreated = "pedido.creado"

const eventTypeHeader = "event-type"
