package state

import "fmt"

var (
	checkinMarkPrefix = []byte("checkin/mark/")
	checkinLogPrefix  = []byte("checkin/log/")
	checkinXPPrefix   = []byte("checkin/xp/")
	checkinParamsKey  = []byte("checkin/params")
	checkinAuthParams = []byte("checkin/authorizer")
	courseItemPrefix  = []byte("courses/item/")
	courseOwnerPrefix = []byte("courses/owner/")
	courseSequenceKey = []byte("courses/seq")
)

func checkinMarkKey(user [20]byte, day uint64) []byte {
	return []byte(fmt.Sprintf("%s%x/%d", checkinMarkPrefix, user, day))
}

func checkinLogKey(user [20]byte) []byte {
	return []byte(fmt.Sprintf("%s%x", checkinLogPrefix, user))
}

func checkinXPKey(user [20]byte) []byte {
	return []byte(fmt.Sprintf("%s%x", checkinXPPrefix, user))
}

func courseItemKey(id uint64) []byte {
	return []byte(fmt.Sprintf("%s%d", courseItemPrefix, id))
}

func courseOwnerKey(creator [20]byte) []byte {
	return []byte(fmt.Sprintf("%s%x", courseOwnerPrefix, creator))
}
