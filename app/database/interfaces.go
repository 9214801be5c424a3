package database

var (
	_ ChannelRepo = (*ChannelRepository)(nil)
	_ MediaRepo   = (*MediaRepository)(nil)
)

// ChannelRepo is the store surface the catalog needs for channels.
type ChannelRepo interface {
	CreateChannelWithMedia(ch *Channel, items []Medium, watermark int64) ([]*Medium, error)
	GetChannel(id int64) (*Channel, error)
	GetChannelsByURL(url string) ([]*Channel, error)
	ListChannels() ([]*Channel, error)
	UpdateChannel(ch *Channel) error
	RemoveChannels(ids []int64) error
}

// MediaRepo is the store surface the catalog needs for media.
type MediaRepo interface {
	ListMedia() ([]*Medium, error)
	ListMediaByChannel(channelID int64) ([]*Medium, error)
	UpsertNewMedia(channelID int64, items []Medium, watermark int64) ([]*Medium, int, error)
	UpdateMedium(m *Medium) error
}
