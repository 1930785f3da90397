package fieldcounter

import (
	runtimepkg "github.com/drblury/fieldcounter/internal/runtime"
	configpkg "github.com/drblury/fieldcounter/internal/runtime/config"
	counterpkg "github.com/drblury/fieldcounter/internal/runtime/counter"
	errspkg "github.com/drblury/fieldcounter/internal/runtime/errors"
	exprpkg "github.com/drblury/fieldcounter/internal/runtime/expression"
	handlerpkg "github.com/drblury/fieldcounter/internal/runtime/handlers"
	idspkg "github.com/drblury/fieldcounter/internal/runtime/ids"
	jsoncodec "github.com/drblury/fieldcounter/internal/runtime/jsoncodec"
	loggingpkg "github.com/drblury/fieldcounter/internal/runtime/logging"
	metadatapkg "github.com/drblury/fieldcounter/internal/runtime/metadata"
	payloadpkg "github.com/drblury/fieldcounter/internal/runtime/payload"
	transportpkg "github.com/drblury/fieldcounter/internal/runtime/transport"
	newtransport "github.com/drblury/fieldcounter/transport"
)

type (
	Config              = configpkg.Config
	Service             = runtimepkg.Service
	ServiceDependencies = runtimepkg.ServiceDependencies
	Transport           = transportpkg.Transport
	TransportFactory    = transportpkg.Factory

	MessageHandlerRegistration   = runtimepkg.MessageHandlerRegistration
	FieldCounterSinkRegistration = runtimepkg.FieldCounterSinkRegistration

	FieldPathCounter       = handlerpkg.FieldPathCounter
	FieldPathCounterConfig = handlerpkg.FieldPathCounterConfig
	CounterWriter          = handlerpkg.CounterWriter
	NameEvaluator          = handlerpkg.NameEvaluator
	Message                = handlerpkg.Message
	TransformationError    = handlerpkg.TransformationError
	MissingFieldError      = handlerpkg.MissingFieldError

	NameExpression = exprpkg.NameExpression
	ExpressionEnv  = exprpkg.Env

	// Payload model
	Value            = payloadpkg.Value
	Record           = payloadpkg.Record
	List             = payloadpkg.List
	Scalar           = payloadpkg.Scalar
	Decoder          = payloadpkg.Decoder
	DecoderFunc      = payloadpkg.DecoderFunc
	DecoderRegistry  = payloadpkg.Registry
	FieldReadable    = payloadpkg.FieldReadable
	PayloadAccessors = payloadpkg.Accessors

	// Counter stores
	CounterStore  = counterpkg.Store
	MemoryCounter = counterpkg.Memory
	FanoutCounter = counterpkg.Fanout

	MiddlewareBuilder      = runtimepkg.MiddlewareBuilder
	MiddlewareRegistration = runtimepkg.MiddlewareRegistration
	RetryMiddlewareConfig  = runtimepkg.RetryMiddlewareConfig

	Metadata = metadatapkg.Metadata

	LogFields     = loggingpkg.LogFields
	ServiceLogger = loggingpkg.ServiceLogger

	HandlerInfo           = runtimepkg.HandlerInfo
	HandlerStats          = runtimepkg.HandlerStats
	ConfigValidationError = errspkg.ConfigValidationError

	// Error classification
	ErrorClassifier = runtimepkg.ErrorClassifier
	ErrorCategory   = runtimepkg.ErrorCategory

	// Modular transport types
	TransportBuilder  = newtransport.Builder
	TransportConfig   = newtransport.Config
	TransportRegistry = newtransport.Registry
)

var (
	NewService     = runtimepkg.NewService
	LoadConfig     = configpkg.Load
	DefaultConfig  = configpkg.Defaults
	ValidateConfig = configpkg.ValidateConfig

	RegisterMessageHandler   = runtimepkg.RegisterMessageHandler
	RegisterFieldCounterSink = runtimepkg.RegisterFieldCounterSink

	NewFieldPathCounter = handlerpkg.NewFieldPathCounter
	ParseFieldPath      = handlerpkg.ParseFieldPath
	IsUnprocessable     = handlerpkg.IsUnprocessable

	CompileNameExpression = exprpkg.Compile
	LiteralName           = exprpkg.Literal

	DefaultDecoders = payloadpkg.DefaultRegistry
	JSONDecoder     = payloadpkg.JSON
	ProtobufDecoder = payloadpkg.Protobuf

	NewMemoryCounter     = counterpkg.NewMemory
	NewPrometheusCounter = counterpkg.NewPrometheus

	DefaultMiddlewares        = runtimepkg.DefaultMiddlewares
	CorrelationIDMiddleware   = runtimepkg.CorrelationIDMiddleware
	LogMessagesMiddleware     = runtimepkg.LogMessagesMiddleware
	TracerMiddleware          = runtimepkg.TracerMiddleware
	MetricsMiddleware         = runtimepkg.MetricsMiddleware
	RetryMiddleware           = runtimepkg.RetryMiddleware
	ConfiguredRetryMiddleware = runtimepkg.ConfiguredRetryMiddleware
	PoisonQueueMiddleware     = runtimepkg.PoisonQueueMiddleware
	RecovererMiddleware       = runtimepkg.RecovererMiddleware

	// Use RegisterTransport and BuildTransport to work with the transport packages.
	// Import individual transports via: _ "github.com/drblury/fieldcounter/transport/kafka"
	DefaultTransportRegistry = newtransport.DefaultRegistry
	RegisterTransport        = newtransport.Register
	BuildTransport           = newtransport.Build
	StaticTransport          = transportpkg.Static

	Marshal       = jsoncodec.Marshal
	MarshalIndent = jsoncodec.MarshalIndent
	Unmarshal     = jsoncodec.Unmarshal
	Encode        = jsoncodec.Encode
	Decode        = jsoncodec.Decode

	ErrServiceRequired      = errspkg.ErrServiceRequired
	ErrHandlerRequired      = errspkg.ErrHandlerRequired
	ErrConsumeQueueRequired = errspkg.ErrConsumeQueueRequired
	ErrHandlerNameRequired  = errspkg.ErrHandlerNameRequired
	ErrConfigRequired       = errspkg.ErrConfigRequired
	ErrLoggerRequired       = errspkg.ErrLoggerRequired
	ErrFieldNameRequired    = errspkg.ErrFieldNameRequired
	ErrWriterRequired       = errspkg.ErrWriterRequired
	ErrDecoderRequired      = errspkg.ErrDecoderRequired
	ErrNameExpression       = errspkg.ErrNameExpression
	ErrUnknownCounterStore  = errspkg.ErrUnknownCounterStore

	NewLogger            = loggingpkg.New
	NewSlogServiceLogger = loggingpkg.NewSlogServiceLogger
	NewZapServiceLogger  = loggingpkg.NewZapServiceLogger

	NewMetadata = metadatapkg.New

	NewMessageID = idspkg.New
)

// Metadata keys and content types understood by the sink.
const (
	MetadataKeyCorrelationID = metadatapkg.KeyCorrelationID
	MetadataKeyContentType   = metadatapkg.KeyContentType

	ContentTypeJSON     = payloadpkg.ContentTypeJSON
	ContentTypeProtobuf = payloadpkg.ContentTypeProtobuf

	DefaultCounterName = handlerpkg.DefaultCounterName
)

// Error category constants for ErrorClassifier.
const (
	ErrorCategoryNone       = runtimepkg.ErrorCategoryNone
	ErrorCategoryValidation = runtimepkg.ErrorCategoryValidation
	ErrorCategoryTransport  = runtimepkg.ErrorCategoryTransport
	ErrorCategoryDownstream = runtimepkg.ErrorCategoryDownstream
	ErrorCategoryOther      = runtimepkg.ErrorCategoryOther
)
