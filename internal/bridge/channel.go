package bridge

// Channel names a capability. The set is closed; names are case-sensitive.
type Channel string

const (
	ChannelReLaunch      Channel = "reLaunch"
	ChannelTakePhoto     Channel = "takePhoto"
	ChannelChooseImage   Channel = "chooseImage"
	ChannelScanCode      Channel = "scanCode"
	ChannelGetFileList   Channel = "getFileList"
	ChannelRmFile        Channel = "rmFile"
	ChannelUnzip         Channel = "unzip"
	ChannelDownloadFile  Channel = "downloadFile"
	ChannelUploadFile    Channel = "uploadFile"
	ChannelOpenSqlite    Channel = "openSqlite"
	ChannelCloseSqlite   Channel = "closeSqlite"
	ChannelExecuteUpdate Channel = "executeUpdate"
	ChannelExecuteQuery  Channel = "executeQuery"
)

// Channels lists every known channel in registration order
var Channels = []Channel{
	ChannelReLaunch,
	ChannelTakePhoto,
	ChannelChooseImage,
	ChannelScanCode,
	ChannelGetFileList,
	ChannelRmFile,
	ChannelUnzip,
	ChannelDownloadFile,
	ChannelUploadFile,
	ChannelOpenSqlite,
	ChannelCloseSqlite,
	ChannelExecuteUpdate,
	ChannelExecuteQuery,
}

var knownChannels = func() map[Channel]struct{} {
	m := make(map[Channel]struct{}, len(Channels))
	for _, ch := range Channels {
		m[ch] = struct{}{}
	}
	return m
}()

// ParseChannel maps a wire name onto a known channel
func ParseChannel(name string) (Channel, bool) {
	ch := Channel(name)
	_, ok := knownChannels[ch]
	return ch, ok
}

// Valid reports whether c is one of the known channels
func (c Channel) Valid() bool {
	_, ok := knownChannels[c]
	return ok
}

func (c Channel) String() string {
	return string(c)
}
