// Package domain defines the persistence models for users, chat rooms, and
// messages. These types are mapped with GORM and shared across the
// repository, service, and realtime layers of the relay.
package domain

import "time"

// User is a chat participant. Accounts are owned by the CRUD backend; the
// relay only reads them to resolve membership and message senders.
type User struct {
	ID           uint      `json:"id"           gorm:"primaryKey;autoIncrement"`
	Name         string    `json:"name"         gorm:"type:varchar(255);not null;default:''"`
	ProfilePhoto string    `json:"profilePhoto" gorm:"type:text;not null;default:''"`
	Email        string    `json:"-"            gorm:"type:varchar(255);uniqueIndex"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// ChatRoom groups two or more users. UpdatedAt is bumped whenever a message
// is stored so room listings can be ordered by recent activity.
//
// Fields:
//   - Users: members, stored in the chat_room_members join table.
//   - LastMessage: most recent message, populated on listing; not persisted.
type ChatRoom struct {
	ID        uint      `json:"id"        gorm:"primaryKey;autoIncrement"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"index"`

	Users       []User   `json:"users"                 gorm:"many2many:chat_room_members;joinForeignKey:ChatRoomID;joinReferences:UserID"`
	LastMessage *Message `json:"lastMessage,omitempty" gorm:"-"`
}

// TableName returns the database table name for ChatRoom.
func (ChatRoom) TableName() string { return "chat_rooms" }

// RoomMember is a row of the room membership join table.
type RoomMember struct {
	ChatRoomID uint `gorm:"primaryKey;autoIncrement:false"`
	UserID     uint `gorm:"primaryKey;autoIncrement:false;index"`
}

// TableName returns the database table name for RoomMember.
func (RoomMember) TableName() string { return "chat_room_members" }

// Message is a single text message sent by a member into a room.
// The (room_id, created_at) index serves history paging.
type Message struct {
	ID        uint      `json:"id"        gorm:"primaryKey;autoIncrement"`
	Text      string    `json:"text"      gorm:"type:text;not null"`
	SenderID  uint      `json:"senderId"  gorm:"not null;index"`
	RoomID    uint      `json:"roomId"    gorm:"not null;index:idx_room_msgs,priority:1"`
	CreatedAt time.Time `json:"createdAt" gorm:"index:idx_room_msgs,priority:2"`
	UpdatedAt time.Time `json:"updatedAt"`

	Sender User     `json:"sender" gorm:"foreignKey:SenderID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Room   ChatRoom `json:"-"      gorm:"foreignKey:RoomID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Message.
func (Message) TableName() string { return "messages" }

// Models lists every model the relay migrates, in dependency order.
func Models() []any {
	return []any{&User{}, &ChatRoom{}, &RoomMember{}, &Message{}}
}
