// Package transports imports every built-in transport for its registration
// side effect.
package transports

import (
	_ "github.com/drblury/fieldcounter/transport/aws"
	_ "github.com/drblury/fieldcounter/transport/channel"
	_ "github.com/drblury/fieldcounter/transport/http"
	_ "github.com/drblury/fieldcounter/transport/kafka"
	_ "github.com/drblury/fieldcounter/transport/nats"
	_ "github.com/drblury/fieldcounter/transport/rabbitmq"
)
