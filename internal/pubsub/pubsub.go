// internal/pubsub/pubsub.go
package pubsub

import (
	"context"

	"dairy-subscription-service/internal/config"

	"github.com/Shopify/sarama"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/cockroachdb/errors"
	jsoniter "github.com/json-iterator/go"
	"github.com/oklog/ulid/v2"
)

const (
	DriverMemory = "memory"
	DriverKafka  = "kafka"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// PubSub pairs a watermill publisher with the subscriber consumers read from.
type PubSub struct {
	publisher  message.Publisher
	subscriber message.Subscriber
}

// New builds the driver named by cfg.PubSubDriver.
func New(cfg config.AppConfig, logger watermill.LoggerAdapter) (*PubSub, error) {
	switch cfg.PubSubDriver {
	case "", DriverMemory:
		return NewMemory(logger), nil
	case DriverKafka:
		return NewKafka(cfg.KafkaBrokers, cfg.KafkaConsumerGroup, logger)
	default:
		return nil, errors.Newf("unknown PUBSUB_DRIVER %q", cfg.PubSubDriver)
	}
}

// NewMemory is an in-process pub/sub for single-node deployments and tests.
func NewMemory(logger watermill.LoggerAdapter) *PubSub {
	ch := gochannel.NewGoChannel(
		gochannel.Config{
			OutputChannelBuffer:            100,
			BlockPublishUntilSubscriberAck: false,
		},
		logger,
	)
	return &PubSub{publisher: ch, subscriber: ch}
}

func NewKafka(brokers []string, consumerGroup string, logger watermill.LoggerAdapter) (*PubSub, error) {
	if len(brokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required for the kafka driver")
	}

	pubCfg := kafka.DefaultSaramaSyncPublisherConfig()
	pubCfg.ClientID = consumerGroup
	pubCfg.Version = sarama.V2_1_0_0

	publisher, err := kafka.NewPublisher(
		kafka.PublisherConfig{
			Brokers:               brokers,
			Marshaler:             kafka.DefaultMarshaler{},
			OverwriteSaramaConfig: pubCfg,
		},
		logger,
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create kafka publisher")
	}

	subCfg := kafka.DefaultSaramaSubscriberConfig()
	subCfg.ClientID = consumerGroup
	subCfg.Version = sarama.V2_1_0_0
	subCfg.Consumer.Offsets.Initial = sarama.OffsetOldest

	subscriber, err := kafka.NewSubscriber(
		kafka.SubscriberConfig{
			Brokers:               brokers,
			ConsumerGroup:         consumerGroup,
			Unmarshaler:           kafka.DefaultMarshaler{},
			OverwriteSaramaConfig: subCfg,
		},
		logger,
	)
	if err != nil {
		_ = publisher.Close()
		return nil, errors.Wrap(err, "failed to create kafka subscriber")
	}

	return &PubSub{publisher: publisher, subscriber: subscriber}, nil
}

// PublishJSON encodes payload and publishes it under a fresh ULID message id.
func (p *PubSub) PublishJSON(ctx context.Context, topic string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrapf(err, "failed to encode %s event", topic)
	}

	msg := message.NewMessage(ulid.Make().String(), body)
	msg.SetContext(ctx)
	if err := p.publisher.Publish(topic, msg); err != nil {
		return errors.Wrapf(err, "failed to publish %s event", topic)
	}
	return nil
}

func (p *PubSub) Subscriber() message.Subscriber {
	return p.subscriber
}

// Close closes both publisher and subscriber
func (p *PubSub) Close() error {
	return errors.CombineErrors(p.publisher.Close(), p.subscriber.Close())
}

// Decode unmarshals a message payload into v.
func Decode(msg *message.Message, v any) error {
	return json.Unmarshal(msg.Payload, v)
}
