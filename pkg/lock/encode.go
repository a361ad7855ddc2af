package lock

import "encoding/json"

func encodeLeaseCommand(cmd leaseCommand) ([]byte, error) {
	return json.Marshal(cmd)
}
