package events

import (
	"context"
	"encoding/json"
	"fmt"
)

// MQTTClient is the publish side of internal/common/mqtt.Client.
type MQTTClient interface {
	Publish(topic string, qos byte, retained bool, payload []byte) error
}

// MQTTPublisher 推送事件到 MQTT
// 床位占用事件发布到 <prefix>/properties/<propertyId>/beds/<bedId> 并 retain，
// 订阅方上线即可拿到每张床的最新状态；其他事件发布到 <prefix>/events/<type>
type MQTTPublisher struct {
	client MQTTClient
	prefix string
	qos    byte
}

func NewMQTTPublisher(client MQTTClient, topicPrefix string, qos byte) *MQTTPublisher {
	return &MQTTPublisher{client: client, prefix: topicPrefix, qos: qos}
}

func (p *MQTTPublisher) Topic(e Event) string {
	if e.Type == TypeBedOccupancyChanged && e.PropertyID != "" && e.BedID != "" {
		return fmt.Sprintf("%s/properties/%s/beds/%s", p.prefix, e.PropertyID, e.BedID)
	}
	return fmt.Sprintf("%s/events/%s", p.prefix, e.Type)
}

func (p *MQTTPublisher) Publish(_ context.Context, e Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return err
	}
	retained := e.Type == TypeBedOccupancyChanged
	return p.client.Publish(p.Topic(e), p.qos, retained, payload)
}
