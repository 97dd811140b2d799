package services

import "math/rand/v2"

const (
	RoomCodeLength = 6
	roomCodeChars  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

func generateRoomCode() string {
	b := make([]byte, RoomCodeLength)
	for i := range b {
		b[i] = roomCodeChars[rand.IntN(len(roomCodeChars))]
	}
	return string(b)
}
