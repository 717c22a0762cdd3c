//go:build ibmmq

package mqutil

import (
	"fmt"
	"strings"
	"time"

	"github.com/ibm-messaging/mq-golang/v5/ibmmq"
	"github.com/pkg/errors"

	"github.com/psanodiya94/gocommon/pkg/cfgutil"
	"github.com/psanodiya94/gocommon/pkg/errutil"
)

// Building with the ibmmq tag requires the MQ client SDK (MQ_INSTALLATION_PATH
// with headers and libmqm); see the README for setup.
func init() {
	nativeDial = dialIBMMQ
}

type ibmmqConn struct {
	qmgr ibmmq.MQQueueManager
}

func dialIBMMQ(cfg cfgutil.MessagingConfig) (nativeConn, error) {
	cd := ibmmq.NewMQCD()
	cd.ChannelName = cfg.Channel
	cd.ConnectionName = fmt.Sprintf("%s(%d)", cfg.Host, cfg.Port)

	cno := ibmmq.NewMQCNO()
	cno.ClientConn = cd
	cno.Options = ibmmq.MQCNO_CLIENT_BINDING

	if cfg.User != "" {
		csp := ibmmq.NewMQCSP()
		csp.AuthenticationType = ibmmq.MQCSP_AUTH_USER_ID_AND_PWD
		csp.UserId = cfg.User
		csp.Password = cfg.Password
		cno.SecurityParms = csp
	}

	qmgr, err := ibmmq.Connx(cfg.QueueManager, cno)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to connect to queue manager %s", cfg.QueueManager)
	}

	return &ibmmqConn{qmgr: qmgr}, nil
}

func (c *ibmmqConn) Close() error {
	return c.qmgr.Disc()
}

func (c *ibmmqConn) open(queue string, options int32) (ibmmq.MQObject, error) {
	od := ibmmq.NewMQOD()
	od.ObjectType = ibmmq.MQOT_Q
	od.ObjectName = queue

	obj, err := c.qmgr.Open(od, options)
	if err != nil {
		return obj, categorizeMQReturn(err, queue)
	}
	return obj, nil
}

func (c *ibmmqConn) Put(queue string, msg Message) error {
	obj, err := c.open(queue, ibmmq.MQOO_OUTPUT|ibmmq.MQOO_FAIL_IF_QUIESCING)
	if err != nil {
		return err
	}
	defer obj.Close(0)

	md := ibmmq.NewMQMD()
	md.Format = ibmmq.MQFMT_STRING
	md.Priority = int32(msg.Properties.Priority)
	if msg.Properties.Persistent {
		md.Persistence = ibmmq.MQPER_PERSISTENT
	}
	if msg.Properties.CorrelationID != "" {
		copy(md.CorrelId, msg.Properties.CorrelationID)
	}
	if msg.Properties.ReplyToQueue != "" {
		md.ReplyToQ = msg.Properties.ReplyToQueue
	}

	pmo := ibmmq.NewMQPMO()
	pmo.Options = ibmmq.MQPMO_NO_SYNCPOINT | ibmmq.MQPMO_NEW_MSG_ID

	err = obj.Put(md, pmo, msg.Payload)
	if err != nil {
		return categorizeMQReturn(err, queue)
	}
	return nil
}

func (c *ibmmqConn) Get(queue string, wait time.Duration) (*Message, error) {
	obj, err := c.open(queue, ibmmq.MQOO_INPUT_AS_Q_DEF|ibmmq.MQOO_FAIL_IF_QUIESCING)
	if err != nil {
		return nil, err
	}
	defer obj.Close(0)

	return c.get(obj, queue, ibmmq.MQGMO_NO_SYNCPOINT|ibmmq.MQGMO_WAIT, wait)
}

func (c *ibmmqConn) Browse(queue string) (*Message, error) {
	obj, err := c.open(queue, ibmmq.MQOO_BROWSE|ibmmq.MQOO_FAIL_IF_QUIESCING)
	if err != nil {
		return nil, err
	}
	defer obj.Close(0)

	return c.get(obj, queue, ibmmq.MQGMO_NO_SYNCPOINT|ibmmq.MQGMO_BROWSE_FIRST, 0)
}

func (c *ibmmqConn) get(obj ibmmq.MQObject, queue string, options int32, wait time.Duration) (*Message, error) {
	md := ibmmq.NewMQMD()
	gmo := ibmmq.NewMQGMO()
	gmo.Options = options
	if wait > 0 {
		gmo.WaitInterval = int32(wait.Milliseconds())
	}

	buffer := make([]byte, 1024*1024)
	length, err := obj.Get(md, gmo, buffer)
	if err != nil {
		var mqret *ibmmq.MQReturn
		if errors.As(err, &mqret) && mqret.MQRC == ibmmq.MQRC_NO_MSG_AVAILABLE {
			return nil, nil
		}
		return nil, categorizeMQReturn(err, queue)
	}

	payload := make([]byte, length)
	copy(payload, buffer[:length])

	return &Message{
		Payload: payload,
		Properties: Properties{
			MessageID:     fmt.Sprintf("%x", md.MsgId),
			CorrelationID: fmt.Sprintf("%x", md.CorrelId),
			ReplyToQueue:  strings.TrimSpace(md.ReplyToQ),
			Format:        strings.TrimSpace(md.Format),
			Priority:      int(md.Priority),
			Persistent:    md.Persistence == ibmmq.MQPER_PERSISTENT,
			PutTime:       md.PutDateTime,
		},
	}, nil
}

func (c *ibmmqConn) Depth(queue string) (int, error) {
	obj, err := c.open(queue, ibmmq.MQOO_INQUIRE|ibmmq.MQOO_FAIL_IF_QUIESCING)
	if err != nil {
		return 0, err
	}
	defer obj.Close(0)

	attrs, err := obj.Inq([]int32{ibmmq.MQIA_CURRENT_Q_DEPTH})
	if err != nil {
		return 0, categorizeMQReturn(err, queue)
	}

	depth, ok := attrs[ibmmq.MQIA_CURRENT_Q_DEPTH].(int32)
	if !ok {
		return 0, errutil.New(errutil.MessageReceive, "queue manager did not report depth").
			WithDetail("queue", queue)
	}
	return int(depth), nil
}

func categorizeMQReturn(err error, queue string) error {
	var mqret *ibmmq.MQReturn
	if errors.As(err, &mqret) {
		switch mqret.MQRC {
		case ibmmq.MQRC_UNKNOWN_OBJECT_NAME:
			return errutil.Wrap(errutil.QueueNotFound, "queue does not exist", err,
				"queue", queue)
		case ibmmq.MQRC_CONNECTION_BROKEN, ibmmq.MQRC_Q_MGR_NOT_AVAILABLE:
			return errutil.Wrap(errutil.MessagingConnection, "queue manager connection lost", err)
		}
	}
	return errutil.Wrap(errutil.MessageReceive, "queue operation failed", err,
		"queue", queue)
}
