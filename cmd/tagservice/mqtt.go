/* Copyright 2019 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Comcast/treetags/core"
	"github.com/Comcast/treetags/view"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

// Publisher announces rendered views.
type Publisher interface {
	Publish(ctx context.Context, res *view.Result) error
}

// MQTTPublisher publishes each rendered view to TOPIC/VIEWID.
type MQTTPublisher struct {
	Client  mqtt.Client
	Topic   string
	QoS     byte
	Quiesce uint
	Timeout time.Duration
	Logger  *zap.Logger
}

// NewMQTTPublisher makes a publisher for the given broker.  The topic
// can have a ":QOS" suffix.
func NewMQTTPublisher(broker, topic string, logger *zap.Logger) *MQTTPublisher {
	topic, qos := parseTopic(topic)

	opts := mqtt.NewClientOptions()
	opts.AddBroker(broker)
	opts.SetClientID("tagservice-" + core.Gensym(8))
	opts.SetKeepAlive(10 * time.Second)
	opts.AutoReconnect = true
	opts.CleanSession = true
	opts.OnConnectionLost = func(client mqtt.Client, err error) {
		logger.Warn("MQTT connection lost", zap.Error(err))
	}

	return &MQTTPublisher{
		Client:  mqtt.NewClient(opts),
		Topic:   topic,
		QoS:     qos,
		Quiesce: 100,
		Timeout: 5 * time.Second,
		Logger:  logger,
	}
}

// Start connects to the broker.
func (p *MQTTPublisher) Start(ctx context.Context) error {
	p.Logger.Info("connecting to broker")
	token := p.Client.Connect()
	if !token.WaitTimeout(p.Timeout) {
		return fmt.Errorf("connecting to broker timed out")
	}
	if err := token.Error(); err != nil {
		return err
	}
	p.Logger.Info("connected to broker")
	return nil
}

func (p *MQTTPublisher) Publish(ctx context.Context, res *view.Result) error {
	js, err := json.Marshal(res)
	if err != nil {
		return err
	}
	topic := p.Topic + "/" + res.ViewId
	token := p.Client.Publish(topic, p.QoS, false, js)
	if !token.WaitTimeout(p.Timeout) {
		return fmt.Errorf("publish to %s timed out", topic)
	}
	return token.Error()
}

// Stop terminates the MQTT session.
func (p *MQTTPublisher) Stop(ctx context.Context) {
	p.Logger.Info("disconnecting")
	p.Client.Disconnect(p.Quiesce)
}

// parseTopic extracts QoS from a topic name of the form TOPIC:QOS.
func parseTopic(s string) (string, byte) {
	i := strings.LastIndex(s, ":")
	if i < 0 {
		return s, 0
	}
	n, err := strconv.Atoi(s[i+1:])
	if err != nil || n < 0 || 2 < n {
		return s, 0
	}
	return s[:i], byte(n)
}
