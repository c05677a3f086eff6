package templates

// 模板键.
const (
	KeyStart = "start_message"
	KeyHelp  = "help_message"
	KeyAbout = "about_message"
)

var titles = map[string]string{
	KeyStart: "Start Message",
	KeyHelp:  "Help Message",
	KeyAbout: "About Message",
}

var defaults = map[string]string{
	KeyStart: "👋 *Welcome {user_name}!*\n\n" +
		"🗄️ *File Storage Bot*\n\n" +
		"I can help you store and share files easily using Telegram channels.\n\n" +
		"*How it works:*\n" +
		"📤 Send me any file (document, photo, video, audio)\n" +
		"🔗 I'll store it in our database and generate a unique link\n" +
		"📥 Anyone with the link can download the file\n" +
		"💾 Files are stored permanently in our channels\n\n" +
		"*Features:*\n" +
		"✅ Unlimited file storage\n" +
		"✅ Permanent shareable links\n" +
		"✅ Download tracking\n" +
		"✅ Easy file management\n\n" +
		"Choose an option below or just send me a file! 📎",

	KeyHelp: "ℹ️ *File Storage Bot - Help Guide*\n\n" +
		"*📤 Uploading Files:*\n" +
		"1. Send any file to the bot\n" +
		"2. Wait for processing\n" +
		"3. Get your unique share link\n" +
		"4. File stored permanently!\n\n" +
		"*🔗 Sharing Files:*\n" +
		"1. Copy the share link\n" +
		"2. Send to anyone\n" +
		"3. They click and download\n" +
		"4. Works anytime, anywhere!\n\n" +
		"*📁 Managing Files:*\n" +
		"• View all your uploads with /myfiles\n" +
		"• Track download counts\n" +
		"• Get file details anytime\n" +
		"• Links never expire\n\n" +
		"*Commands:*\n" +
		"/start - Start the bot\n" +
		"/myfiles - View your files\n" +
		"/stats - View statistics\n" +
		"/help - Show this help message\n" +
		"/about - About this bot\n\n" +
		"*✨ Features:*\n" +
		"✅ Unlimited file storage\n" +
		"✅ Permanent shareable links\n" +
		"✅ Download tracking\n" +
		"✅ Multiple file types\n" +
		"✅ Fast and reliable",

	KeyAbout: "ℹ️ *About File Storage Bot*\n\n" +
		"🤖 *What is this bot?*\n" +
		"This is a file storage and sharing bot that uses Telegram's infrastructure to store and distribute files.\n\n" +
		"*🎯 Purpose:*\n" +
		"• Store files permanently in Telegram channels\n" +
		"• Generate shareable links for easy distribution\n" +
		"• Track downloads and manage your files\n\n" +
		"*⚙️ How it works:*\n" +
		"When you send a file, it's stored in our Telegram channels and a unique link is generated. " +
		"Anyone with the link can download the file anytime, anywhere.\n\n" +
		"*📞 Support:*\n" +
		"For help or questions, contact the bot administrator.\n\n" +
		"*🔐 Privacy:*\n" +
		"Only users with the share link can access your files.\n\n" +
		"Thank you for using File Storage Bot! 🙏",
}

// Keys 返回全部可编辑的模板键，顺序固定.
func Keys() []string {
	return []string{KeyStart, KeyHelp, KeyAbout}
}

// Title 返回模板键的展示名.
func Title(key string) string {
	if t, ok := titles[key]; ok {
		return t
	}

	return "Message"
}

// Default 返回内置默认模板.
func Default(key string) (string, bool) {
	text, ok := defaults[key]

	return text, ok
}

// Known 判断模板键是否受支持.
func Known(key string) bool {
	_, ok := defaults[key]

	return ok
}
